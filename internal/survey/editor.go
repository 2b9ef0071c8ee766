package survey

import (
	"churchhealth/internal/model"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownSection     = errors.New("unknown section")
	ErrUnknownPoint       = errors.New("unknown point")
	ErrUnknownSubQuestion = errors.New("unknown sub-question")
	ErrLastSubQuestion    = errors.New("each point must have at least one sub-question")
	ErrUnknownOption      = errors.New("unknown option")
	ErrUnknownEdit        = errors.New("unknown edit operation")
)

// EditOp names a question bank edit
type EditOp string

const (
	EditAddSubQuestion    EditOp = "add_sub_question"
	EditRemoveSubQuestion EditOp = "remove_sub_question"
	EditMoveSubQuestion   EditOp = "move_sub_question"
	EditSubQuestionText   EditOp = "update_sub_question_text"
	EditOption            EditOp = "update_option"
	EditReflectionText    EditOp = "update_reflection_text"
	EditPoint             EditOp = "update_point"
)

// Direction is the move direction for EditMoveSubQuestion
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// EditRequest is a single admin edit against the question bank
type EditRequest struct {
	Op            EditOp          `json:"op" validate:"required,oneof=add_sub_question remove_sub_question move_sub_question update_sub_question_text update_option update_reflection_text update_point"`
	Section       model.SectionID `json:"section" validate:"required,oneof=worship discipleship mission"`
	PointID       model.PointID   `json:"pointId" validate:"required"`
	SubQuestionID string          `json:"subQuestionId,omitempty"`
	Direction     Direction       `json:"direction,omitempty"`
	Text          string          `json:"text,omitempty"`
	Title         string          `json:"title,omitempty"`
	Description   string          `json:"description,omitempty"`
	OptionScore   int             `json:"optionScore,omitempty"`
	Label         string          `json:"label,omitempty"`
}

// DefaultOptions is the option set given to newly added sub-questions
func DefaultOptions() []model.Option {
	return []model.Option{
		{Score: 1, Label: "Not present", Description: "Not present"},
		{Score: 2, Label: "Rarely present", Description: "Rarely present"},
		{Score: 3, Label: "Sometimes present", Description: "Sometimes present"},
		{Score: 4, Label: "Often present", Description: "Often present"},
		{Score: 5, Label: "Consistently present", Description: "Consistently present"},
	}
}

// ApplyEdit applies req to a copy of schema and returns the copy
func ApplyEdit(schema *model.QuestionsData, req EditRequest) (*model.QuestionsData, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fromValidator(err)
	}
	out := schema.Clone()
	sec := out.Section(req.Section)
	if sec == nil {
		return nil, ErrUnknownSection
	}
	p := sec.Point(req.PointID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPoint, req.PointID)
	}

	switch req.Op {
	case EditAddSubQuestion:
		addSubQuestion(p, req.Text)
		return out, nil
	case EditPoint:
		p.Title = req.Title
		p.Description = req.Description
		return out, nil
	}

	idx := indexByOrder(p, req.SubQuestionID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSubQuestion, req.SubQuestionID)
	}
	sortSubQuestions(p)

	switch req.Op {
	case EditRemoveSubQuestion:
		if len(p.SubQuestions) <= 1 {
			return nil, ErrLastSubQuestion
		}
		p.LastSubQuestion = highestSuffix(p)
		p.SubQuestions = append(p.SubQuestions[:idx], p.SubQuestions[idx+1:]...)
		renumber(p)
	case EditMoveSubQuestion:
		moveSubQuestion(p, idx, req.Direction)
	case EditSubQuestionText:
		p.SubQuestions[idx].Text = req.Text
	case EditReflectionText:
		p.SubQuestions[idx].ReflectionText = req.Text
	case EditOption:
		sq := &p.SubQuestions[idx]
		if !sq.HasOptions() {
			sq.Options = DefaultOptions()
		}
		found := false
		for i := range sq.Options {
			if sq.Options[i].Score == req.OptionScore {
				sq.Options[i].Label = req.Label
				sq.Options[i].Description = req.Description
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: score %d", ErrUnknownOption, req.OptionScore)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEdit, req.Op)
	}
	return out, nil
}

// addSubQuestion appends a sub-question under a fresh id. Ids of removed
// sub-questions are never issued again, so stale answers stay orphaned.
func addSubQuestion(p *model.Point, text string) {
	k := highestSuffix(p) + 1
	p.LastSubQuestion = k
	sortSubQuestions(p)
	p.SubQuestions = append(p.SubQuestions, model.SubQuestion{
		ID:      fmt.Sprintf("%d.%d", p.ID.Number(), k),
		Text:    text,
		Order:   len(p.SubQuestions) + 1,
		Options: DefaultOptions(),
	})
	renumber(p)
}

// highestSuffix is the largest id suffix the point has issued or still holds
func highestSuffix(p *model.Point) int {
	high := p.LastSubQuestion
	for _, sq := range p.SubQuestions {
		i := strings.LastIndexByte(sq.ID, '.')
		if n, err := strconv.Atoi(sq.ID[i+1:]); err == nil && n > high {
			high = n
		}
	}
	return high
}

func moveSubQuestion(p *model.Point, idx int, dir Direction) {
	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(p.SubQuestions) {
		return
	}
	p.SubQuestions[idx], p.SubQuestions[target] = p.SubQuestions[target], p.SubQuestions[idx]
	renumber(p)
}

// indexByOrder returns the position of id once the point is sorted by order
func indexByOrder(p *model.Point, id string) int {
	for i, sq := range p.SortedSubQuestions() {
		if sq.ID == id {
			return i
		}
	}
	return -1
}

func sortSubQuestions(p *model.Point) {
	p.SubQuestions = p.SortedSubQuestions()
}

// renumber keeps orders contiguous and 1-based
func renumber(p *model.Point) {
	for i := range p.SubQuestions {
		p.SubQuestions[i].Order = i + 1
	}
}
