package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/equilux/gridtalk/internal/config"
	"github.com/equilux/gridtalk/internal/database"
	"github.com/equilux/gridtalk/internal/repository/dynamo"
	"github.com/equilux/gridtalk/internal/service"
	"github.com/equilux/gridtalk/internal/transport/http/handlers"
	"github.com/equilux/gridtalk/internal/transport/http/middleware"
	"github.com/equilux/gridtalk/internal/transport/ws"
)

func main() {
	cfg := config.Load()

	// Store
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Connected to DynamoDB")

	// Repositories
	messageRepo := dynamo.NewMessageRepo(db, cfg.MessagesTable, cfg.ConversationWindow)
	userRepo := dynamo.NewUserRepo(db, cfg.UsersTable)

	// Services
	chatService := service.NewChatService(messageRepo, userRepo)
	tradeService := service.NewTradeService(messageRepo)

	// Presence + realtime
	hub := ws.NewHub()
	notifier := ws.NewHubNotifier(hub)
	chatService.SetNotifier(notifier)
	tradeService.SetNotifier(notifier)

	// Handlers
	userHandler := handlers.NewUserHandler(chatService)
	messageHandler := handlers.NewMessageHandler(chatService)
	tradeHandler := handlers.NewTradeHandler(chatService, tradeService)

	// Auth middleware
	auth := middleware.Auth(cfg.JWTSecret)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, cfg.JWTSecret))

	// Protected - Users
	mux.Handle("GET /api/v1/users", auth(http.HandlerFunc(userHandler.List)))

	// Protected - Messages
	mux.Handle("GET /api/v1/conversations", auth(http.HandlerFunc(messageHandler.Conversations)))
	mux.Handle("GET /api/v1/messages/sent", auth(http.HandlerFunc(messageHandler.Sent)))
	mux.Handle("GET /api/v1/messages/received", auth(http.HandlerFunc(messageHandler.Received)))
	mux.Handle("GET /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Thread)))
	mux.Handle("POST /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Send)))

	// Protected - Trade offers
	mux.Handle("GET /api/v1/trade-offers", auth(http.HandlerFunc(tradeHandler.List)))
	mux.Handle("POST /api/v1/trade-offers/{id}/respond", auth(http.HandlerFunc(tradeHandler.Respond)))

	// Start server with CORS
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("Starting server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, middleware.CORS(mux)))
}
