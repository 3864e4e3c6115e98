package paper

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wirePaper mirrors Paper as the grading service sends it. Nested payloads
// are kept raw because the service sometimes serializes them as JSON text.
type wirePaper struct {
	ID         json.RawMessage   `json:"id"`
	Title      string            `json:"title"`
	Exercises  []json.RawMessage `json:"exercises"`
	TotalItems int               `json:"total_items"`
}

type wireExercise struct {
	ID    json.RawMessage `json:"id"`
	Type  ExerciseType    `json:"type"`
	Title string          `json:"title"`
	Items json.RawMessage `json:"items"`
	Asset json.RawMessage `json:"asset"`
}

type wireItem struct {
	ID      json.RawMessage `json:"id"`
	Prompt  string          `json:"prompt"`
	Options json.RawMessage `json:"options"`
}

// DecodePaper parses a paper payload, unwrapping any nested field that was
// delivered as a JSON-encoded string. Numeric ids are converted to strings.
// TotalItems is recomputed when the payload omits it.
func DecodePaper(raw []byte) (*Paper, error) {
	var wp wirePaper
	if err := json.Unmarshal(raw, &wp); err != nil {
		return nil, fmt.Errorf("decode paper: %w", err)
	}

	id, err := decodeID(wp.ID)
	if err != nil {
		return nil, fmt.Errorf("decode paper id: %w", err)
	}

	p := &Paper{
		ID:         id,
		Title:      wp.Title,
		Exercises:  make([]Exercise, 0, len(wp.Exercises)),
		TotalItems: wp.TotalItems,
	}

	for i, rawEx := range wp.Exercises {
		ex, err := decodeExercise(rawEx)
		if err != nil {
			return nil, fmt.Errorf("exercise %d: %w", i, err)
		}
		p.Exercises = append(p.Exercises, ex)
	}

	if p.TotalItems == 0 {
		p.TotalItems = p.ItemCount()
	}
	return p, nil
}

func decodeExercise(raw json.RawMessage) (Exercise, error) {
	var we wireExercise
	if err := decodeNested(raw, &we); err != nil {
		return Exercise{}, err
	}

	id, err := decodeID(we.ID)
	if err != nil {
		return Exercise{}, fmt.Errorf("id: %w", err)
	}
	ex := Exercise{ID: id, Type: we.Type, Title: we.Title}

	if !isNull(we.Asset) {
		var asset Asset
		if err := decodeNested(we.Asset, &asset); err != nil {
			return Exercise{}, fmt.Errorf("asset: %w", err)
		}
		ex.Asset = &asset
	}

	var rawItems []json.RawMessage
	if !isNull(we.Items) {
		if err := decodeNested(we.Items, &rawItems); err != nil {
			return Exercise{}, fmt.Errorf("items: %w", err)
		}
	}
	ex.Items = make([]ExerciseItem, 0, len(rawItems))
	for j, rawItem := range rawItems {
		it, err := decodeItem(rawItem)
		if err != nil {
			return Exercise{}, fmt.Errorf("item %d: %w", j, err)
		}
		ex.Items = append(ex.Items, it)
	}
	return ex, nil
}

func decodeItem(raw json.RawMessage) (ExerciseItem, error) {
	var wi wireItem
	if err := decodeNested(raw, &wi); err != nil {
		return ExerciseItem{}, err
	}
	id, err := decodeID(wi.ID)
	if err != nil {
		return ExerciseItem{}, fmt.Errorf("id: %w", err)
	}
	it := ExerciseItem{ID: id, Prompt: wi.Prompt}
	if !isNull(wi.Options) {
		if err := decodeNested(wi.Options, &it.Options); err != nil {
			return ExerciseItem{}, fmt.Errorf("options: %w", err)
		}
	}
	return it, nil
}

// decodeNested unmarshals raw into v. When raw is a JSON string, the string
// content is parsed as the JSON document instead.
func decodeNested(raw json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		if text == "" {
			return nil
		}
		trimmed = []byte(text)
	}
	return json.Unmarshal(trimmed, v)
}

// decodeID accepts both string and numeric identifiers.
func decodeID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
