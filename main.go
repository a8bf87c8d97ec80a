package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Kratospidey/gbs-sub000/api"
	"github.com/Kratospidey/gbs-sub000/blob"
	"github.com/Kratospidey/gbs-sub000/cache"
	"github.com/Kratospidey/gbs-sub000/config"
	"github.com/Kratospidey/gbs-sub000/content"
	"github.com/Kratospidey/gbs-sub000/database"
	"github.com/Kratospidey/gbs-sub000/identity"
	"github.com/Kratospidey/gbs-sub000/services"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	ctx := context.Background()
	connectTimeout := config.GetSeconds(c, "STORE_TIMEOUT_SECONDS", 15*time.Second)

	// Relational profile store
	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		config.GetString(c, "PROFILE_DB_HOST", "localhost"),
		config.GetString(c, "PROFILE_DB_USER", "postgres"),
		config.GetString(c, "PROFILE_DB_PASSWORD", ""),
		config.GetString(c, "PROFILE_DB_NAME", "blog"),
		config.GetString(c, "PROFILE_DB_PORT", "5432"),
		config.GetString(c, "PROFILE_DB_SSLMODE", "require"),
	)

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		fmt.Printf("Error connecting to profile database: %v\n", err)
		os.Exit(1)
	}

	profileDB := database.New(db)
	if err := profileDB.Migrate(); err != nil {
		fmt.Printf("Error migrating profile database: %v\n", err)
		os.Exit(1)
	}

	// Content store
	contentStore, err := content.Connect(ctx,
		config.GetString(c, "CONTENT_STORE_URI", "mongodb://localhost:27017"),
		config.GetString(c, "CONTENT_STORE_DB", "blog"),
		connectTimeout,
	)
	if err != nil {
		fmt.Printf("Error connecting to content store: %v\n", err)
		os.Exit(1)
	}
	if err := contentStore.EnsureIndexes(ctx); err != nil {
		fmt.Printf("Error ensuring content store indexes: %v\n", err)
		os.Exit(1)
	}

	// Identity provider: Descope in production, local JWT for development
	var provider identity.Provider
	if projectID := config.GetString(c, "DESCOPE_PROJECT_ID", ""); projectID != "" {
		provider, err = identity.NewDescopeProvider(projectID, config.GetString(c, "DESCOPE_MANAGEMENT_KEY", ""))
		if err != nil {
			fmt.Printf("Error initializing identity provider: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("DESCOPE_PROJECT_ID not set, using local JWT identity provider")
		provider = identity.NewJWTProvider(config.GetString(c, "JWT_SECRET", "dev-secret"))
	}

	// Blob store for uploaded images
	blobStore, err := blob.NewS3Store(ctx,
		config.GetString(c, "S3_BUCKET", "blog-media"),
		config.GetString(c, "AWS_REGION", "us-east-1"),
	)
	if err != nil {
		fmt.Printf("Error initializing blob store: %v\n", err)
		os.Exit(1)
	}

	// Optional feed cache
	feedCache := cache.NewFeedCache(config.GetString(c, "REDIS_ADDR", ""))
	defer feedCache.Close()

	accounts := services.NewAccountService(
		contentStore.AuthorRepo(),
		contentStore.PostRepo(),
		contentStore.SavedPostRepo(),
		profileDB.ProfileRepo(),
		provider,
		contentStore,
	)
	posts := services.NewPostService(
		contentStore.PostRepo(),
		contentStore.SavedPostRepo(),
		blobStore,
		contentStore,
	)
	saved := services.NewSavedPostService(
		contentStore.SavedPostRepo(),
		contentStore.PostRepo(),
	)
	profiles := services.NewProfileService(
		profileDB.ProfileRepo(),
		contentStore.AuthorRepo(),
		contentStore.PostRepo(),
		provider,
		blobStore,
	)

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(api.Deps{
		Accounts:  accounts,
		Posts:     posts,
		Saved:     saved,
		Profiles:  profiles,
		Provider:  provider,
		FeedCache: feedCache,
	})
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)

	if err := contentStore.Close(context.Background()); err != nil {
		fmt.Printf("Error closing content store: %v\n", err)
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
