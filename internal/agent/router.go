package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edgard/cardiobot/internal/llm"
)

// Node is a step of the conversation graph.
type Node string

const (
	NodeClassify Node = "classify"
	NodeMedical  Node = "medical"
	NodeTools    Node = "tools"
	NodeGreeting Node = "greeting"
	NodeRefusal  Node = "refusal"
	NodeEnd      Node = "end"
)

// Decision is the outcome of running a node.
type Decision string

const (
	DecisionMedical   Decision = "medical"
	DecisionGreeting  Decision = "greeting"
	DecisionRefusal   Decision = "refusal"
	DecisionToolCalls Decision = "tool_calls"
	DecisionDone      Decision = "done"
)

type edge struct {
	from     Node
	decision Decision
}

// transitions is the whole graph. A (node, decision) pair missing here is a
// bug and aborts the run.
var transitions = map[edge]Node{
	{NodeClassify, DecisionMedical}:  NodeMedical,
	{NodeClassify, DecisionGreeting}: NodeGreeting,
	{NodeClassify, DecisionRefusal}:  NodeRefusal,
	{NodeMedical, DecisionToolCalls}: NodeTools,
	{NodeMedical, DecisionDone}:      NodeEnd,
	{NodeTools, DecisionDone}:        NodeMedical,
	{NodeGreeting, DecisionDone}:     NodeEnd,
	{NodeRefusal, DecisionDone}:      NodeEnd,
}

var intentDecisions = map[Intent]Decision{
	IntentMedical:  DecisionMedical,
	IntentGreeting: DecisionGreeting,
	IntentOffTopic: DecisionRefusal,
}

// State is the per-turn accumulator threaded through the graph. It belongs
// to a single Run.
type State struct {
	ThreadID    string
	Messages    []llm.Message
	Intent      Intent
	Path        []Node
	ToolBatches int
}

// NewState starts a turn from chronological history plus the new message.
func NewState(history []llm.Message, userText string) *State {
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: userText})
	return &State{ThreadID: uuid.NewString(), Messages: msgs}
}

// Last returns the most recent message.
func (s *State) Last() (llm.Message, bool) {
	if len(s.Messages) == 0 {
		return llm.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

func (s *State) append(m llm.Message) {
	s.Messages = append(s.Messages, m)
}

// ToolRunner executes a single tool call.
type ToolRunner interface {
	Execute(ctx context.Context, call llm.ToolCall) llm.Message
}

// Router runs the conversation graph: classify, then medical (looping
// through tools), greeting or refusal.
type Router struct {
	classifier        *Classifier
	medical           *MedicalResponder
	greeting          *Generator
	refusal           *Generator
	tools             ToolRunner
	maxToolIterations int
	log               *slog.Logger
}

// NewRouter wires the graph nodes. routerModel serves the classifier and the
// greeting and refusal generators, medicalModel the medical node.
func NewRouter(routerModel, medicalModel llm.Client, tools ToolRunner, toolDefs []llm.ToolDefinition, maxToolIterations int, log *slog.Logger) *Router {
	return &Router{
		classifier:        NewClassifier(routerModel, log),
		medical:           NewMedicalResponder(medicalModel, toolDefs, log),
		greeting:          NewGenerator("greeting", routerModel, GreetingPrompt, log),
		refusal:           NewGenerator("refusal", routerModel, RefusalPrompt, log),
		tools:             tools,
		maxToolIterations: maxToolIterations,
		log:               log.With("component", "router"),
	}
}

// Run executes the graph from NodeClassify to NodeEnd. Nodes run one at a
// time and the context is checked before each of them.
func (r *Router) Run(ctx context.Context, st *State) error {
	log := r.log.With("thread_id", st.ThreadID)
	node := NodeClassify
	for node != NodeEnd {
		if err := ctx.Err(); err != nil {
			log.WarnContext(ctx, "Turn aborted", "node", node, "error", err)
			return fmt.Errorf("aborted before %s: %w", node, err)
		}
		st.Path = append(st.Path, node)

		decision, err := r.step(ctx, node, st)
		if err != nil {
			log.ErrorContext(ctx, "Node failed", "node", node, "error", err)
			return fmt.Errorf("%s node: %w", node, err)
		}

		next, ok := transitions[edge{node, decision}]
		if !ok {
			return fmt.Errorf("no transition from %s on %s", node, decision)
		}
		log.DebugContext(ctx, "Transition", "from", node, "decision", decision, "to", next)
		node = next
	}
	st.Path = append(st.Path, NodeEnd)
	log.InfoContext(ctx, "Turn completed", "intent", st.Intent, "path", st.Path, "tool_batches", st.ToolBatches)
	return nil
}

func (r *Router) step(ctx context.Context, node Node, st *State) (Decision, error) {
	switch node {
	case NodeClassify:
		return r.classify(ctx, st)
	case NodeMedical:
		return r.respond(ctx, st)
	case NodeTools:
		return r.runTools(ctx, st)
	case NodeGreeting:
		return r.generate(ctx, r.greeting, st)
	case NodeRefusal:
		return r.generate(ctx, r.refusal, st)
	default:
		return "", fmt.Errorf("unknown node %q", node)
	}
}

func (r *Router) classify(ctx context.Context, st *State) (Decision, error) {
	intent, verdict, err := r.classifier.Classify(ctx, st.Messages)
	if err != nil {
		return "", err
	}
	st.Intent = intent
	if verdict.Content != "" {
		st.append(verdict)
	}
	return intentDecisions[intent], nil
}

func (r *Router) respond(ctx context.Context, st *State) (Decision, error) {
	allowTools := st.ToolBatches < r.maxToolIterations
	msg, err := r.medical.Respond(ctx, st.Messages, allowTools)
	if err != nil {
		return "", err
	}
	if msg.HasToolCalls() && !allowTools {
		// Calls made without tools bound cannot be honoured.
		r.log.WarnContext(ctx, "Dropping tool calls past the iteration limit",
			"thread_id", st.ThreadID, "calls", len(msg.ToolCalls), "limit", r.maxToolIterations)
		msg.ToolCalls = nil
	}
	st.append(msg)
	if msg.HasToolCalls() {
		return DecisionToolCalls, nil
	}
	return DecisionDone, nil
}

// runTools executes the pending calls of the last message in request order.
func (r *Router) runTools(ctx context.Context, st *State) (Decision, error) {
	last, ok := st.Last()
	if !ok || !last.HasToolCalls() {
		return "", fmt.Errorf("no pending tool calls")
	}
	for _, call := range last.ToolCalls {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		st.append(r.tools.Execute(ctx, call))
	}
	st.ToolBatches++
	return DecisionDone, nil
}

func (r *Router) generate(ctx context.Context, g *Generator, st *State) (Decision, error) {
	msg, err := g.Generate(ctx, st.Messages)
	if err != nil {
		return "", err
	}
	st.append(msg)
	return DecisionDone, nil
}
