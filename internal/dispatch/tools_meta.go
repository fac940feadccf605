package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

func handleCancel(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	requestID := optionalString(args, "request_id")
	progressToken := optionalString(args, "progress_token")
	if err := sess.Driver.Cancel(ctx, requestID, progressToken); err != nil {
		return nil, err
	}
	return map[string]any{"canceled": true}, nil
}

func handleTerminateThreads(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	raw, ok := args["thread_ids"].([]any)
	if !ok {
		return nil, drivererr.New(drivererr.InvalidArgs, "field \"thread_ids\" must be an array of integers")
	}
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		if n, ok := v.(float64); ok {
			ids = append(ids, int(n))
		}
	}
	if err := sess.Driver.TerminateThreads(ctx, ids); err != nil {
		return nil, err
	}
	return map[string]any{"terminated": ids}, nil
}

func handleRawRequest(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	command, err := requiredString(args, "command")
	if err != nil {
		return nil, err
	}
	var payload []byte
	if raw, ok := args["payload"]; ok {
		encoded, _ := raw.(map[string]any)
		if encoded != nil {
			payload, _ = json.Marshal(encoded)
		}
	}
	resp, err := sess.Driver.RawRequest(ctx, command, payload)
	if err != nil {
		return nil, err
	}
	return map[string]any{"response": base64.StdEncoding.EncodeToString(resp)}, nil
}

// handlePollEvents implements spec.md §4.3 step 3: promote every
// session's completed pending run into a synthesized event, update
// status, then drain each driver's notification queue, all folded into
// one response.
func handlePollEvents(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sessionID := optionalString(args, "session_id")

	var targets []string
	if sessionID != "" {
		targets = []string{sessionID}
	} else {
		for _, sess := range d.manager.List() {
			targets = append(targets, sess.ID)
		}
	}

	var events []map[string]any
	for _, id := range targets {
		sess, ok := d.manager.Lookup(id)
		if !ok {
			continue
		}

		outcome := sess.Async.Poll()
		if outcome.Completed {
			if outcome.Failed {
				sess.SetStatus(types.StatusStopped)
				events = append(events, map[string]any{
					"session_id": sess.ID,
					"method":     "error",
					"params":     map[string]any{"message": outcome.ErrToken},
				})
				d.events.Emit("error", map[string]any{"session_id": sess.ID, "message": outcome.ErrToken})
			} else {
				sess.SetStatus(stopStatus(outcome.Stop))
				events = append(events, map[string]any{
					"session_id": sess.ID,
					"method":     "stopped",
					"params":     outcome.Stop,
				})
				d.events.Emit("stop", map[string]any{"session_id": sess.ID, "stop": outcome.Stop})
			}
		}

		for _, n := range sess.Driver.DrainNotifications() {
			events = append(events, map[string]any{
				"session_id": sess.ID,
				"method":     n.Method,
				"params":     json.RawMessage(n.RawParams),
			})
		}
	}
	if events == nil {
		events = []map[string]any{}
	}
	return map[string]any{"events": events}, nil
}

func handleSessions(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	var out []map[string]any
	for _, sess := range d.manager.List() {
		out = append(out, map[string]any{
			"session_id": sess.ID,
			"status":     string(sess.Status()),
			"created_at": sess.CreatedAt(),
		})
	}
	if out == nil {
		out = []map[string]any{}
	}
	return map[string]any{"sessions": out}, nil
}
