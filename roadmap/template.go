package roadmap

import (
	"fmt"
	"strings"
)

func topic(id, name string, subs ...string) Topic {
	t := Topic{ID: id, Name: name, Subtopics: make([]Subtopic, len(subs))}
	for i, s := range subs {
		t.Subtopics[i] = Subtopic{ID: fmt.Sprintf("%s.%d", id, i+1), Name: s}
	}
	return t
}

var templates = map[string]Roadmap{
	"fastapi": {Topics: []Topic{
		topic("1", "Introduction to FastAPI",
			"What is FastAPI?", "Comparison with Flask/Django", "FastAPI vs other frameworks"),
		topic("2", "Environment Setup",
			"Install FastAPI", "Install Uvicorn", "Run first app"),
		topic("3", "Basic API Development",
			"Creating endpoints", "Path parameters", "Query parameters", "Request body"),
		topic("4", "Advanced Features",
			"Data validation with Pydantic", "Authentication & Security", "Database integration", "Testing strategies"),
	}},
	"react": {Topics: []Topic{
		topic("1", "React Fundamentals",
			"What is React?", "JSX Syntax", "Components and Props"),
		topic("2", "State Management",
			"useState Hook", "useEffect Hook", "Context API"),
		topic("3", "Advanced Patterns",
			"Custom Hooks", "Performance Optimization", "Error Boundaries"),
	}},
}

// Template returns a starter roadmap for a learning topic. Known subjects
// are matched case-insensitively by substring; anything else gets a short
// generic outline named after the topic. The result is always a fresh copy.
func Template(subject string) Roadmap {
	norm := strings.ToLower(subject)
	switch {
	case strings.Contains(norm, "fastapi"):
		return templates["fastapi"].Clone()
	case strings.Contains(norm, "react"):
		return templates["react"].Clone()
	}
	return Roadmap{Topics: []Topic{
		topic("1", "Introduction to "+subject, "What is "+subject+"?", subject+" fundamentals"),
		topic("2", "Getting Started", "Setup and installation", "First example"),
	}}
}

// Refine marks every topic as refined, mirroring the planner's
// prompt-driven refinement of a generated roadmap.
func Refine(doc Roadmap) Roadmap {
	out := doc.Clone()
	for i := range out.Topics {
		out.Topics[i].Name += " (Refined)"
	}
	return out
}
