package dispatch

import "context"

func handleModules(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	modules, err := sess.Driver.Modules(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"modules": modules}, nil
}

func handleLoadedSources(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	sources, err := sess.Driver.LoadedSources(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sources": sources}, nil
}

func handleCapabilities(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	caps, err := sess.Driver.Capabilities(ctx)
	if err != nil {
		return nil, err
	}
	return caps, nil
}

func handleFindSymbol(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	loc, err := sess.Driver.FindSymbol(ctx, name)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func handleVariableLocation(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	frameID, err := requiredInt(args, "frame_id")
	if err != nil {
		return nil, err
	}
	loc, err := sess.Driver.VariableLocation(ctx, name, frameID)
	if err != nil {
		return nil, err
	}
	return loc, nil
}

func handleExpandMacro(ctx context.Context, d *Dispatcher, args map[string]any) (any, error) {
	sess, err := d.lookupSession(args)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(args, "name")
	if err != nil {
		return nil, err
	}
	expansion, err := sess.Driver.ExpandMacro(ctx, name)
	if err != nil {
		return nil, err
	}
	return expansion, nil
}
