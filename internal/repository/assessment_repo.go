package repository

import (
	"churchhealth/internal/model"
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AssessmentRepo handles MongoDB operations for drafts and submissions.
// There is at most one draft per email.
type AssessmentRepo interface {
	EnsureIndexes(ctx context.Context)

	UpsertDraft(ctx context.Context, rec *model.AssessmentRecord) error
	GetDraft(ctx context.Context, email string) (*model.AssessmentRecord, error)
	RetireDraft(ctx context.Context, email string) error

	InsertSubmission(ctx context.Context, rec *model.AssessmentRecord) (string, error)
	GetByID(ctx context.Context, id string) (*model.AssessmentRecord, error)
	List(ctx context.Context, limit int64) ([]*model.AssessmentRecord, error)
}

type assessmentRepo struct {
	collection *mongo.Collection
}

// NewAssessmentRepo creates a new assessment repository
func NewAssessmentRepo(db *mongo.Database) AssessmentRepo {
	return &assessmentRepo{
		collection: db.Collection("assessments"),
	}
}

// EnsureIndexes creates the draft uniqueness and listing indexes
func (r *assessmentRepo) EnsureIndexes(ctx context.Context) {
	draftOnly := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"status": model.StatusDraft}).
		SetName("one_draft_per_email")
	r.createIndex(ctx, bson.D{{Key: "user_email", Value: 1}}, draftOnly)
	r.createIndex(ctx, bson.D{
		{Key: "status", Value: 1},
		{Key: "created_at", Value: -1},
	}, options.Index())

	log.Println("Assessment indexes ensured")
}

func (r *assessmentRepo) createIndex(ctx context.Context, keys bson.D, opts *options.IndexOptions) {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		log.Printf("Warning: failed to create index on %s: %v", r.collection.Name(), err)
	}
}

func draftFilter(email string) bson.M {
	return bson.M{"user_email": email, "status": model.StatusDraft}
}

// UpsertDraft writes the draft for rec.UserEmail, creating it on first save.
// Score fields are cleared when the draft carries none.
func (r *assessmentRepo) UpsertDraft(ctx context.Context, rec *model.AssessmentRecord) error {
	now := time.Now().UTC()
	set := bson.M{
		"user_name":        rec.UserName,
		"church_name":      rec.ChurchName,
		"assessment":       rec.Assessment,
		"answers":          rec.Answers,
		"reflection_notes": rec.ReflectionNotes,
		"updated_at":       now,
	}
	unset := bson.M{}
	if rec.ScoresJSON != nil {
		set["scores_json"] = rec.ScoresJSON
		set["section_scores"] = rec.SectionScores
		set["total_score"] = rec.TotalScore
	} else {
		unset["scores_json"] = ""
		unset["section_scores"] = ""
		unset["total_score"] = ""
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"_id": uuid.NewString(), "created_at": now},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := draftFilter(rec.UserEmail)
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent save created the draft first; update it in place
		_, err = r.collection.UpdateOne(ctx, filter, update)
	}
	return err
}

func (r *assessmentRepo) GetDraft(ctx context.Context, email string) (*model.AssessmentRecord, error) {
	return r.findOne(ctx, draftFilter(email))
}

func (r *assessmentRepo) RetireDraft(ctx context.Context, email string) error {
	_, err := r.collection.DeleteOne(ctx, draftFilter(email))
	return err
}

func (r *assessmentRepo) InsertSubmission(ctx context.Context, rec *model.AssessmentRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Status = model.StatusSubmitted
	rec.CreatedAt = time.Now().UTC()
	rec.UpdatedAt = rec.CreatedAt

	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (r *assessmentRepo) GetByID(ctx context.Context, id string) (*model.AssessmentRecord, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// List returns the newest submissions first
func (r *assessmentRepo) List(ctx context.Context, limit int64) ([]*model.AssessmentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"status": model.StatusSubmitted}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*model.AssessmentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *assessmentRepo) findOne(ctx context.Context, filter bson.M) (*model.AssessmentRecord, error) {
	var rec model.AssessmentRecord
	err := r.collection.FindOne(ctx, filter).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
