// Package upstream holds local stand-ins for the remote inventory, order,
// payment and chat APIs. They implement the documented wire contracts and
// nothing more, with a chaos switch for exercising failure paths.
package upstream

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/ashendes/storefront/internal/envelope"
	"github.com/ashendes/storefront/internal/metrics"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Chaos fails a share of requests while enabled
type Chaos struct {
	mu      sync.Mutex
	enabled bool
	rate    float64
	service string
	rnd     *rand.Rand
}

func NewChaos(service string, rate float64) *Chaos {
	return &Chaos{
		service: service,
		rate:    rate,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetEnabled toggles failure injection
func (c *Chaos) SetEnabled(enabled bool) {
	c.mu.Lock()
	c.enabled = enabled
	c.mu.Unlock()

	v := 0.0
	if enabled {
		v = 1
	}
	metrics.ChaosFailureRate.WithLabelValues(c.service).Set(v)
	log.WithFields(log.Fields{"service": c.service, "enabled": enabled}).Info("Chaos mode changed")
}

func (c *Chaos) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Fail reports whether this request should be failed
func (c *Chaos) Fail() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && c.rnd.Float64() < c.rate
}

// Register mounts enable/disable toggles under /chaos/<name>
func (c *Chaos) Register(r gin.IRouter, name string) {
	r.POST("/chaos/"+name+"/enable", func(ctx *gin.Context) {
		c.SetEnabled(true)
		ctx.JSON(http.StatusOK, gin.H{"message": "Chaos mode enabled", "failure_rate": c.rate})
	})
	r.POST("/chaos/"+name+"/disable", func(ctx *gin.Context) {
		c.SetEnabled(false)
		ctx.JSON(http.StatusOK, gin.H{"message": "Chaos mode disabled"})
	})
}

// respond writes v directly, or wrapped in the gateway passthrough shape
// with a 200 transport status when proxied is set.
func respond(c *gin.Context, proxied bool, status int, v interface{}) {
	if !proxied {
		c.JSON(status, v)
		return
	}
	wrapped, err := envelope.Proxy(status, v)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, wrapped)
}
