package survey

import (
	"churchhealth/internal/model"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// FieldError names one failed field at the validation boundary
type FieldError struct {
	Field         string `json:"field"`
	SubQuestionID string `json:"subQuestionId,omitempty"`
	Reason        string `json:"reason"`
}

// ValidationErrors is returned when a submission, score set or question bank
// fails validation
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		if fe.SubQuestionID != "" {
			parts = append(parts, fmt.Sprintf("%s (%s): %s", fe.Field, fe.SubQuestionID, fe.Reason))
			continue
		}
		parts = append(parts, fe.Field+": "+fe.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors unwraps err into ValidationErrors
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func fromValidator(err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Field: fe.Namespace(), Reason: fe.Tag()})
	}
	return out
}

// ValidateUserInfo checks the respondent's identity fields
func ValidateUserInfo(info model.UserInfo) error {
	if err := validate.Struct(info); err != nil {
		return fromValidator(err)
	}
	return nil
}

// ValidateAnswers checks that nested answers match the schema's shape and that
// every slot holds a score in [1,5]
func ValidateAnswers(nested model.NestedAnswers, schema *model.QuestionsData) error {
	if schema == nil {
		return ValidationErrors{{Field: "schema", Reason: "question bank unavailable"}}
	}
	var errs ValidationErrors
	for _, sid := range model.Sections {
		byPoint, ok := nested[sid]
		if !ok {
			errs = append(errs, FieldError{Field: string(sid), Reason: "missing section"})
			continue
		}
		for _, p := range schema.Section(sid).Points {
			field := fmt.Sprintf("%s.%s.subQuestions", sid, p.ID)
			pa := byPoint[p.ID]
			if pa == nil {
				errs = append(errs, FieldError{Field: field, Reason: "missing point"})
				continue
			}
			subs := p.SortedSubQuestions()
			if len(pa.SubQuestions) == 0 {
				errs = append(errs, FieldError{Field: field, Reason: "at least one sub-question response is required"})
				continue
			}
			if len(pa.SubQuestions) != len(subs) {
				errs = append(errs, FieldError{
					Field:  field,
					Reason: fmt.Sprintf("expected %d responses, got %d", len(subs), len(pa.SubQuestions)),
				})
			}
			n := min(len(subs), len(pa.SubQuestions))
			for i := 0; i < n; i++ {
				slot := fmt.Sprintf("%s[%d]", field, i)
				v := pa.SubQuestions[i]
				switch {
				case v == nil:
					errs = append(errs, FieldError{Field: slot, SubQuestionID: subs[i].ID, Reason: "unanswered"})
				case *v < 1 || *v > 5:
					errs = append(errs, FieldError{Field: slot, SubQuestionID: subs[i].ID, Reason: "score must be between 1 and 5"})
				}
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateScores checks that every point and section score is present and
// within [1,5]
func ValidateScores(scores model.CalculatedScores) error {
	var errs ValidationErrors
	for _, pid := range model.AllPoints {
		v, ok := scores.Points[pid]
		if !ok {
			errs = append(errs, FieldError{Field: "points." + string(pid), Reason: "missing"})
		} else if v < 1 || v > 5 {
			errs = append(errs, FieldError{Field: "points." + string(pid), Reason: "score must be between 1 and 5"})
		}
	}
	for _, sid := range model.Sections {
		v, ok := scores.Sections[sid]
		if !ok {
			errs = append(errs, FieldError{Field: "sections." + string(sid), Reason: "missing"})
		} else if v < 1 || v > 5 {
			errs = append(errs, FieldError{Field: "sections." + string(sid), Reason: "score must be between 1 and 5"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateQuestions enforces the question bank invariants: fixed sections and
// points, at least one sub-question per point, contiguous orders, unique ids
// and, where options are present, exactly one option per score 1..5
func ValidateQuestions(schema *model.QuestionsData) error {
	if schema == nil {
		return ValidationErrors{{Field: "questions", Reason: "required"}}
	}
	if err := validate.Struct(schema); err != nil {
		return fromValidator(err)
	}

	var errs ValidationErrors
	seen := make(map[string]bool)
	for _, sid := range model.Sections {
		sec := schema.Section(sid)
		if sec.ID != sid {
			errs = append(errs, FieldError{Field: string(sid) + ".id", Reason: fmt.Sprintf("expected %q", sid)})
		}
		want := model.SectionPoints[sid]
		if len(sec.Points) != len(want) {
			errs = append(errs, FieldError{
				Field:  string(sid) + ".points",
				Reason: fmt.Sprintf("expected %d points, got %d", len(want), len(sec.Points)),
			})
			continue
		}
		for i, p := range sec.Points {
			field := fmt.Sprintf("%s.points[%d]", sid, i)
			if p.ID != want[i] {
				errs = append(errs, FieldError{Field: field + ".id", Reason: fmt.Sprintf("expected %q", want[i])})
			}
			for j, sq := range p.SortedSubQuestions() {
				if sq.Order != j+1 {
					errs = append(errs, FieldError{Field: field + ".subQuestions", SubQuestionID: sq.ID, Reason: "orders must be contiguous from 1"})
				}
				if seen[sq.ID] {
					errs = append(errs, FieldError{Field: field + ".subQuestions", SubQuestionID: sq.ID, Reason: "duplicate id"})
				}
				seen[sq.ID] = true
				if sq.HasOptions() && !hasFullScoreSet(sq.Options) {
					errs = append(errs, FieldError{Field: field + ".subQuestions", SubQuestionID: sq.ID, Reason: "options must cover scores 1 to 5 exactly once"})
				}
			}
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func hasFullScoreSet(opts []model.Option) bool {
	if len(opts) != 5 {
		return false
	}
	var seen [6]bool
	for _, o := range opts {
		if o.Score < 1 || o.Score > 5 || seen[o.Score] {
			return false
		}
		seen[o.Score] = true
	}
	return true
}
