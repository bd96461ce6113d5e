package upstream

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"github.com/ashendes/storefront/internal/models"
	"github.com/gin-gonic/gin"
)

const maxSuggestions = 3

// Concierge is the stand-in chat completion endpoint. It recommends
// inventory items whose text shares words with the latest user message.
type Concierge struct {
	inv *Inventory
	// Proxied answers in the gateway shape, as the hosted endpoint does
	Proxied bool
}

func NewConcierge(inv *Inventory) *Concierge {
	return &Concierge{inv: inv, Proxied: true}
}

func (cc *Concierge) Register(r gin.IRouter) {
	r.POST("/chatbot", cc.chat)
}

func (cc *Concierge) chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, cc.Proxied, http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	question := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == models.RoleUser {
			question = req.Messages[i].Content
			break
		}
	}

	respond(c, cc.Proxied, http.StatusOK, models.ChatResponse{Reply: cc.Reply(question)})
}

// Reply builds the recommendation text for question
func (cc *Concierge) Reply(question string) string {
	words := tokens(question)
	if len(words) == 0 {
		return "Tell me what you are looking for, for example a summer t-shirt or a warm jacket."
	}

	type scored struct {
		item  models.CatalogItem
		score int
	}
	var hits []scored
	for _, it := range cc.inv.Snapshot() {
		if it.Qty <= 0 {
			continue
		}
		text := tokens(it.Name + " " + it.Category + " " + it.Description)
		score := 0
		for w := range words {
			if text[w] {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{it, score})
		}
	}

	if len(hits) == 0 {
		return "I couldn't find a match. Try: summer t-shirt, warm jacket, formal shirt."
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > maxSuggestions {
		hits = hits[:maxSuggestions]
	}

	picks := make([]string, len(hits))
	for i, h := range hits {
		picks[i] = fmt.Sprintf("%s ($%.2f)", h.item.Name, h.item.Price)
	}
	return "You might like: " + strings.Join(picks, ", ") + "."
}

var stopWords = map[string]bool{"a": true, "an": true, "the": true, "for": true, "and": true, "or": true, "me": true, "i": true, "t": true}

func tokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if !stopWords[f] {
			out[f] = true
		}
	}
	return out
}
