package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Answer is the selection made for a single question. A question can be
// answered with one option or with an ordered set of options.
type Answer struct {
	Options []string
	multi   bool
	blank   bool
}

// Single returns an answer with exactly one selected option.
func Single(option string) Answer {
	return Answer{Options: []string{option}, blank: option == ""}
}

// Multi returns an answer with an ordered set of selected options.
func Multi(options ...string) Answer {
	return Answer{Options: options, multi: true, blank: len(options) == 0}
}

// IsMulti reports whether the answer was given as a set of options.
func (a Answer) IsMulti() bool { return a.multi }

// IsBlank reports whether the answer carries no meaningful value
// (null, empty string, empty list, zero or false).
func (a Answer) IsBlank() bool { return a.blank }

// Text renders the answer as a single line of text.
func (a Answer) Text() string {
	return strings.Join(a.Options, ", ")
}

// AnswerSet maps question identifiers to answers while remembering the order
// in which the questions were supplied.
type AnswerSet struct {
	order   []string
	answers map[string]Answer
}

// NewAnswerSet returns an empty answer set.
func NewAnswerSet() *AnswerSet {
	return &AnswerSet{answers: make(map[string]Answer)}
}

// Set records the answer for a question. Re-setting a question keeps its
// original position.
func (s *AnswerSet) Set(questionID string, answer Answer) {
	if s.answers == nil {
		s.answers = make(map[string]Answer)
	}
	if _, exists := s.answers[questionID]; !exists {
		s.order = append(s.order, questionID)
	}
	s.answers[questionID] = answer
}

// Get returns the answer for a question.
func (s *AnswerSet) Get(questionID string) (Answer, bool) {
	if s == nil {
		return Answer{}, false
	}
	a, ok := s.answers[questionID]
	return a, ok
}

// Len returns the number of answered questions.
func (s *AnswerSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Questions returns the question identifiers in submission order.
func (s *AnswerSet) Questions() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Values returns the text of every answer in submission order.
func (s *AnswerSet) Values() []string {
	if s == nil {
		return nil
	}
	values := make([]string, 0, len(s.order))
	for _, id := range s.order {
		values = append(values, s.answers[id].Text())
	}
	return values
}

// MeaningfulValues is like Values but skips blank answers.
func (s *AnswerSet) MeaningfulValues() []string {
	if s == nil {
		return nil
	}
	values := make([]string, 0, len(s.order))
	for _, id := range s.order {
		a := s.answers[id]
		if a.IsBlank() {
			continue
		}
		values = append(values, a.Text())
	}
	return values
}

// UnmarshalJSON decodes a JSON object of question -> answer, keeping key order.
// Anything other than an object is rejected with ErrInvalidAnswers.
func (s *AnswerSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrInvalidAnswers
	}

	set := NewAnswerSet()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: question %q: %v", ErrInvalidAnswers, key, err)
		}
		answer, err := decodeAnswer(raw)
		if err != nil {
			return fmt.Errorf("%w: question %q: %v", ErrInvalidAnswers, key, err)
		}
		set.Set(key, answer)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
	}

	*s = *set
	return nil
}

// MarshalJSON encodes the set as a JSON object in submission order.
func (s AnswerSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		a := s.answers[id]
		var value []byte
		if a.multi {
			value, err = json.Marshal(a.Options)
		} else {
			value, err = json.Marshal(a.Text())
		}
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func decodeAnswer(raw json.RawMessage) (Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Answer{blank: true}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Answer{}, err
		}
		options := make([]string, 0, len(items))
		for _, item := range items {
			text, _ := scalarText(item)
			options = append(options, text)
		}
		return Multi(options...), nil
	}

	text, blank := scalarText(trimmed)
	return Answer{Options: []string{text}, blank: blank}, nil
}

// scalarText coerces a JSON value to text and reports whether it is falsy.
func scalarText(raw json.RawMessage) (string, bool) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(raw), false
	}

	switch val := v.(type) {
	case nil:
		return "", true
	case string:
		return val, val == ""
	case bool:
		return strconv.FormatBool(val), !val
	case json.Number:
		f, err := val.Float64()
		return val.String(), err == nil && f == 0
	default:
		return string(bytes.TrimSpace(raw)), false
	}
}
