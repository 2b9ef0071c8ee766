package model

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Sub-question ids contain dots, which Mongo treats as path separators, so
// the flat maps are stored as arrays of entries.

type answerEntry struct {
	ID    string `bson:"id"`
	Score int    `bson:"score"`
}

type reflectionEntry struct {
	ID   string `bson:"id"`
	Text string `bson:"text"`
}

func (m AnswerMap) MarshalBSONValue() (bsontype.Type, []byte, error) {
	entries := make([]answerEntry, 0, len(m))
	for _, id := range sortedKeys(map[string]int(m)) {
		entries = append(entries, answerEntry{ID: id, Score: m[id]})
	}
	return bson.MarshalValue(entries)
}

func (m *AnswerMap) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var entries []answerEntry
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&entries); err != nil {
		return err
	}
	out := make(AnswerMap, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Score
	}
	*m = out
	return nil
}

func (m ReflectionMap) MarshalBSONValue() (bsontype.Type, []byte, error) {
	entries := make([]reflectionEntry, 0, len(m))
	for _, id := range sortedKeys(map[string]string(m)) {
		entries = append(entries, reflectionEntry{ID: id, Text: m[id]})
	}
	return bson.MarshalValue(entries)
}

func (m *ReflectionMap) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var entries []reflectionEntry
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&entries); err != nil {
		return err
	}
	out := make(ReflectionMap, len(entries))
	for _, e := range entries {
		out[e.ID] = e.Text
	}
	*m = out
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
