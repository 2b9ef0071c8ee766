package repository

import (
	"churchhealth/internal/model"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepo stores the admin-editable question bank as one document
type QuestionRepo interface {
	// Get returns nil when no bank has been stored yet
	Get(ctx context.Context) (*model.QuestionsData, error)
	Replace(ctx context.Context, q *model.QuestionsData) error
}

const questionBankID = "current"

type questionBankDoc struct {
	ID                  string `bson:"_id"`
	model.QuestionsData `bson:",inline"`
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a Mongo-backed question bank repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("question_bank"),
	}
}

func (r *questionRepo) Get(ctx context.Context) (*model.QuestionsData, error) {
	var doc questionBankDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": questionBankID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc.QuestionsData, nil
}

func (r *questionRepo) Replace(ctx context.Context, q *model.QuestionsData) error {
	q.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": questionBankID},
		questionBankDoc{ID: questionBankID, QuestionsData: *q},
		opts,
	)
	return err
}

type fileQuestionRepo struct {
	mu   sync.Mutex
	path string
}

// NewFileQuestionRepo keeps the question bank in a local JSON file. Writes go
// to a temp file first and are renamed into place.
func NewFileQuestionRepo(path string) QuestionRepo {
	return &fileQuestionRepo{path: path}
}

func (r *fileQuestionRepo) Get(ctx context.Context) (*model.QuestionsData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var q model.QuestionsData
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *fileQuestionRepo) Replace(ctx context.Context, q *model.QuestionsData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}
