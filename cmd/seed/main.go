package main

import (
	"churchhealth/internal/config"
	"churchhealth/internal/repository"
	"churchhealth/internal/survey"
	"context"
	"flag"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// seed writes the default question bank, replacing whatever is stored
func main() {
	force := flag.Bool("force", false, "overwrite an existing question bank")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo repository.QuestionRepo
	if cfg.UsesFileQuestions() {
		repo = repository.NewFileQuestionRepo(cfg.QuestionsFile)
	} else {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer client.Disconnect(ctx)
		repo = repository.NewQuestionRepo(client.Database(cfg.MongoDB))
	}

	existing, err := repo.Get(ctx)
	if err != nil {
		log.Fatalf("Failed to read question bank: %v", err)
	}
	if existing != nil && !*force {
		log.Println("Question bank already present, use -force to overwrite")
		return
	}

	bank := survey.DefaultQuestions()
	if err := survey.ValidateQuestions(bank); err != nil {
		log.Fatalf("Default question bank is invalid: %v", err)
	}
	if err := repo.Replace(ctx, bank); err != nil {
		log.Fatalf("Failed to seed question bank: %v", err)
	}

	log.Printf("Seeded question bank with %d sub-questions", len(bank.SubQuestionIDs()))
}
