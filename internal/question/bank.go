package question

// bank maps lower-cased skill names to one canned screening question.
// Used when generation fails or the backend is unavailable.
var bank = map[string]string{
	"react":      "What is a React component and how does state management work in React?",
	"fastapi":    "What is FastAPI and how does it differ from Flask? Give a simple example of a FastAPI endpoint.",
	"cpp":        "What is RAII in C++ and how does its implementation affect resource management within an application? Provide a brief code example.",
	"python":     "What is a Python decorator and how is it used? Provide a simple example.",
	"javascript": "What is event delegation in JavaScript and why is it useful?",
	"mongodb":    "What is a MongoDB document and how does it differ from a relational database row?",
	"sql":        "What is a JOIN in SQL and provide an example query.",
	"docker":     "What is Docker and how does containerization benefit development workflows?",
	"git":        "What is the difference between git merge and git rebase?",
	"html":       "What is the purpose of the <head> tag in HTML?",
	"css":        "What is the box model in CSS?",
	"node.js":    "What is the event loop in Node.js?",
	"java":       "What is inheritance in Java and how is it implemented?",
	"go":         "What is a goroutine and how does it differ from an operating system thread?",
	"kubernetes": "What is the difference between a Pod and a Service in Kubernetes?",
}
