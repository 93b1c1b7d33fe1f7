// Package story plays branching stories: a set of nodes joined by choices,
// walked one choice at a time until an ending node is reached.
//
// Stories are trusted content, not user input, so the graph is not checked
// before play. A choice that points at a missing node fails closed with
// ErrNodeNotFound when it is taken. Cycles are allowed; a story may loop back
// to an earlier scene on purpose.
package story

import (
	"errors"
	"fmt"
)

var (
	ErrNodeNotFound = errors.New("story: node not found")
	ErrBadChoice    = errors.New("story: choice out of range")
	ErrEnded        = errors.New("story: node is an ending")
)

// Choice is one button under a scene.
type Choice struct {
	Text     string `json:"text"`
	NextNode string `json:"next_node"`
}

// Node is one scene.
type Node struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Image      string   `json:"image,omitempty"`
	Choices    []Choice `json:"choices,omitempty"`
	IsEnding   bool     `json:"is_ending"`
	EndingType string   `json:"ending_type,omitempty"` // "good", "lesson", ...
}

// Question is an end-of-story comprehension question.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// Story is a whole branching narrative.
type Story struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	AgeRange    string     `json:"age_range,omitempty"`
	StartNode   string     `json:"start_node"`
	Nodes       []Node     `json:"nodes"`
	Quiz        []Question `json:"quiz,omitempty"`
}

// Node looks a node up by id.
func (s *Story) Node(id string) (*Node, error) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in story %q", ErrNodeNotFound, id, s.ID)
}

// Start returns the opening scene. An empty StartNode means the first node.
func Start(s *Story) (*Node, error) {
	if s.StartNode == "" {
		if len(s.Nodes) == 0 {
			return nil, fmt.Errorf("%w: story %q has no nodes", ErrNodeNotFound, s.ID)
		}
		return &s.Nodes[0], nil
	}
	return s.Node(s.StartNode)
}

// Choose takes choice number choiceIndex (0-based) from node nodeID and
// returns the scene it leads to.
func Choose(s *Story, nodeID string, choiceIndex int) (*Node, error) {
	cur, err := s.Node(nodeID)
	if err != nil {
		return nil, err
	}
	if cur.IsEnding {
		return nil, fmt.Errorf("%w: %q", ErrEnded, nodeID)
	}
	if choiceIndex < 0 || choiceIndex >= len(cur.Choices) {
		return nil, fmt.Errorf("%w: %d of %d at %q", ErrBadChoice, choiceIndex, len(cur.Choices), nodeID)
	}
	return s.Node(cur.Choices[choiceIndex].NextNode)
}

// Validate lists structural problems: duplicate ids, dangling choices,
// endings that still offer choices, and dead ends not marked as endings.
// It never blocks a story; the content loader logs what it returns.
func Validate(s *Story) []string {
	var problems []string

	ids := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if ids[n.ID] {
			problems = append(problems, fmt.Sprintf("duplicate node id %q", n.ID))
		}
		ids[n.ID] = true
	}

	if s.StartNode != "" && !ids[s.StartNode] {
		problems = append(problems, fmt.Sprintf("start node %q does not exist", s.StartNode))
	}

	for _, n := range s.Nodes {
		if n.IsEnding && len(n.Choices) > 0 {
			problems = append(problems, fmt.Sprintf("ending %q has choices", n.ID))
		}
		if !n.IsEnding && len(n.Choices) == 0 {
			problems = append(problems, fmt.Sprintf("node %q has no choices and is not an ending", n.ID))
		}
		for i, c := range n.Choices {
			if !ids[c.NextNode] {
				problems = append(problems, fmt.Sprintf("node %q choice %d points to missing node %q", n.ID, i, c.NextNode))
			}
		}
	}

	for i, q := range s.Quiz {
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			problems = append(problems, fmt.Sprintf("quiz question %d answer index out of range", i))
		}
	}

	return problems
}

// Grade counts correct answers. answers[i] is the option index chosen for
// question i; missing or out-of-range answers count as wrong.
func Grade(s *Story, answers []int) (correct, total int) {
	total = len(s.Quiz)
	for i, q := range s.Quiz {
		if i < len(answers) && answers[i] == q.Answer {
			correct++
		}
	}
	return correct, total
}
