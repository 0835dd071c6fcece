package debug

import (
	tooltypes "github.com/slighter12/godot-agent-tools/tools/types"
	"github.com/slighter12/godot-agent-tools/trace"
)

func (t *Tool) startSignalTrace(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	paths, err := args.RequireStringList("node_paths")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	signalFilter, _ := args.StringList("signals")
	maxEvents := args.IntOr("max_events", 0)

	targets := make([]trace.Target, 0, len(paths))
	for _, path := range paths {
		node, resolveErr := t.resolveNode(path)
		if resolveErr != nil {
			return tooltypes.FailureFromError(resolveErr)
		}
		targets = append(targets, trace.Target{
			Node: node,
			Path: t.env.Tree.Root().PathTo(node),
		})
	}

	sessionID, startErr := t.env.Traces.StartTrace(targets, signalFilter, maxEvents)
	if startErr != nil {
		return tooltypes.Failure(startErr.Error())
	}
	return tooltypes.Success(map[string]any{
		"session_id": sessionID,
	})
}

func (t *Tool) pollSignalTrace(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	sessionID, err := args.RequireString("session_id")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	sinceIndex := args.IntOr("since_index", 0)

	events, nextIndex, pollErr := t.env.Traces.PollTrace(sessionID, sinceIndex)
	if pollErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeSessionNotFound, pollErr.Error())
	}
	if events == nil {
		events = []trace.Event{}
	}
	return tooltypes.Success(map[string]any{
		"session_id": sessionID,
		"events":     events,
		"next_index": nextIndex,
	})
}

func (t *Tool) stopSignalTrace(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	sessionID, err := args.RequireString("session_id")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if stopErr := t.env.Traces.StopTrace(sessionID); stopErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeSessionNotFound, stopErr.Error())
	}
	return tooltypes.Success(map[string]any{
		"session_id": sessionID,
		"message":    "Signal trace stopped",
	})
}

func (t *Tool) startPropertyWatch(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	path, err := args.RequireString("node_path")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	variables, err := args.RequireStringList("variables")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	maxEvents := args.IntOr("max_events", 0)

	node, resolveErr := t.resolveNode(path)
	if resolveErr != nil {
		return tooltypes.FailureFromError(resolveErr)
	}

	sessionID, startErr := t.env.Traces.StartWatch(trace.Target{
		Node: node,
		Path: t.env.Tree.Root().PathTo(node),
	}, variables, maxEvents)
	if startErr != nil {
		return tooltypes.Failure(startErr.Error())
	}
	return tooltypes.Success(map[string]any{
		"session_id": sessionID,
	})
}

func (t *Tool) pollPropertyWatch(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	sessionID, err := args.RequireString("session_id")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	sinceIndex := args.IntOr("since_index", 0)

	events, nextIndex, pollErr := t.env.Traces.PollWatch(sessionID, sinceIndex)
	if pollErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeSessionNotFound, pollErr.Error())
	}
	if events == nil {
		events = []trace.DeltaEvent{}
	}
	return tooltypes.Success(map[string]any{
		"session_id": sessionID,
		"events":     events,
		"next_index": nextIndex,
	})
}

func (t *Tool) stopPropertyWatch(args tooltypes.ArgumentBundle) tooltypes.ResultBundle {
	sessionID, err := args.RequireString("session_id")
	if err != nil {
		return tooltypes.FailureFromError(err)
	}
	if stopErr := t.env.Traces.StopWatch(sessionID); stopErr != nil {
		return tooltypes.FailureCode(tooltypes.CodeSessionNotFound, stopErr.Error())
	}
	return tooltypes.Success(map[string]any{
		"session_id": sessionID,
		"message":    "Property watch stopped",
	})
}
