package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/notesphere/backend/config"
	"github.com/notesphere/backend/controller"
	"github.com/notesphere/backend/models"
	"github.com/notesphere/backend/realtime"
	"github.com/notesphere/backend/repository"
	"github.com/notesphere/backend/services"
)

func main() {
	cfg := config.Load()

	// One HTTP client for every worker call; its timeout bounds both the
	// fire-and-forget jobs and the synchronous embedding path.
	httpClient := &http.Client{
		Timeout: cfg.AIServiceTimeout,
	}

	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to database: %v", err)
	}

	// Broadcast hub for the shared notes topic.
	hub := realtime.NewHub()
	go hub.Run()

	aiClient := services.NewAIClient(httpClient, cfg.AIServiceURL)
	dispatcher := services.NewDispatcher(aiClient, cfg.BackendBaseURL)
	noteRepo := repository.NewNoteRepository(db)
	noteService := services.NewNoteService(noteRepo, hub, dispatcher, aiClient, cfg.SearchMaxDistance, cfg.StoragePoolSize)
	noteController := controller.NewNoteController(noteService, cfg.SearchResultLimit)
	callbackController := controller.NewCallbackController(noteService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware for the frontend
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Add health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Notes API",
			"version": "1.0.0",
		})
	})

	// API routes
	api := router.Group("/api")
	{
		notes := api.Group("/notes", controller.RequireUser())
		{
			notes.POST("", noteController.CreateNote)      // Create a note, enrichment follows async
			notes.GET("", noteController.GetNotes)         // Current user's notes, newest first
			notes.GET("/search", noteController.SearchNotes)
			notes.PUT("/:id", noteController.UpdateNote)   // Edit resets all derived fields
			notes.DELETE("/:id", noteController.DeleteNote)
		}

		// Inbound results from the analysis worker
		callbacks := api.Group("/callbacks")
		{
			callbacks.POST("/sentiment/:noteId", callbackController.UpdateSentiment)
			callbacks.POST("/title/:noteId", callbackController.UpdateTitle)
			callbacks.POST("/summary/:noteId", callbackController.UpdateSummary)
			callbacks.POST("/embedding/:noteId", callbackController.UpdateEmbedding)
		}
	}

	// Realtime channel: one shared topic, {type, note} JSON events
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleConnection(c.Writer, c.Request)
	})

	log.Printf("Notes backend server starting on http://localhost:%s", cfg.ServerPort)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.ServerPort)
	log.Printf("Realtime topic available at: ws://localhost:%s/ws", cfg.ServerPort)

	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// openDatabase connects to Postgres, makes sure the vector extension exists
// and migrates the notes schema.
func openDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&models.Note{}); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to Postgres and migrated the notes schema.")
	return db, nil
}
