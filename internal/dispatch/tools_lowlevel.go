package dispatch

import (
	"context"
	"encoding/base64"

	"github.com/cog-debug/cog-debug/internal/drivererr"
)

// hexOrDecimalAddress is accepted as-is and forwarded to the driver,
// which is responsible for interpreting its own address format (DAP
// adapters accept an opaque "memory reference" string; the native
// engine stub treats it as a label). Validating "looks like a hex
// address" beyond non-empty is left to the driver, since the valid
// shape is backend-specific.
func hexOrDecimalAddress(args map[string]any) (string, error) {
	addr, err := requiredString(args, "address")
	if err != nil {
		return "", err
	}
	return addr, nil
}

func handleReadMemory(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	addr, err := hexOrDecimalAddress(args)
	if err != nil {
		return nil, err
	}
	size, err := requiredInt(args, "size")
	if err != nil {
		return nil, err
	}
	result, err := sess.Driver.ReadMemory(ctx, addr, size)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"address":          result.Address,
		"data":             base64.StdEncoding.EncodeToString(result.Data),
		"unreadable_bytes": result.UnreadableBytes,
	}, nil
}

func handleWriteMemory(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	addr, err := hexOrDecimalAddress(args)
	if err != nil {
		return nil, err
	}
	encoded, err := requiredString(args, "data")
	if err != nil {
		return nil, err
	}
	data, decErr := base64.StdEncoding.DecodeString(encoded)
	if decErr != nil {
		return nil, drivererr.Wrap(drivererr.InvalidArgs, "field \"data\" must be base64-encoded bytes", decErr)
	}
	result, err := sess.Driver.WriteMemory(ctx, addr, data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func handleDisassemble(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	addr, err := hexOrDecimalAddress(args)
	if err != nil {
		return nil, err
	}
	count, err := requiredInt(args, "count")
	if err != nil {
		return nil, err
	}
	offset := optionalInt(args, "offset", 0)
	resolveSymbols := optionalBool(args, "resolve_symbols")
	instructions, err := sess.Driver.Disassemble(ctx, addr, count, offset, resolveSymbols)
	if err != nil {
		return nil, err
	}
	return map[string]any{"instructions": instructions}, nil
}

func handleReadRegisters(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	threadID, err := requiredInt(args, "thread_id")
	if err != nil {
		return nil, err
	}
	registers, err := sess.Driver.ReadRegisters(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"registers": registers}, nil
}

func handleWriteRegister(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	threadID, err := requiredInt(args, "thread_id")
	if err != nil {
		return nil, err
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	value, err := requiredString(args, "value")
	if err != nil {
		return nil, err
	}
	if err := sess.Driver.WriteRegister(ctx, threadID, name, value); err != nil {
		return nil, err
	}
	return map[string]any{"written": true}, nil
}
