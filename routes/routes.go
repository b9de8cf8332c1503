package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"resort-backend/controllers"
	"resort-backend/middleware"
)

func parseCorsOrigins() []string {
	raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS"))
	if raw == "" {
		return []string{"*"}
	}

	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// SetupRouter wires controller instances onto the HTTP surface.
func SetupRouter(
	rc *controllers.ReservationController,
	pc *controllers.PaymentController,
	wc *controllers.WebhookController,
	sc *controllers.SweepController,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger())

	origins := parseCorsOrigins()
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		reservations := api.Group("/reservations")
		{
			reservations.POST("", rc.CreateReservation)
			reservations.GET("/:bookingId", rc.GetReservation)
			reservations.POST("/:bookingId/cancel", rc.CancelReservation)
		}

		payments := api.Group("/payments")
		{
			payments.POST("/initiate", pc.InitiatePayment)

			// the gateway redirects the browser here, by POST or GET
			payments.POST("/callback", pc.HandleCallback)
			payments.GET("/callback", pc.HandleCallback)

			payments.POST("/webhook", wc.HandleWebhook)
		}

		units := api.Group("/units")
		{
			units.GET("", controllers.GetUnits)
			units.POST("", controllers.CreateUnit)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/sweep", sc.Sweep)
		}
	}

	return r
}
