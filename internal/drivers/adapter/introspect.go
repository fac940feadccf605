package adapter

import (
	"context"
	"encoding/base64"

	"github.com/cog-debug/cog-debug/internal/drivererr"
	"github.com/cog-debug/cog-debug/internal/types"
)

func (p *Proxy) Modules(ctx context.Context) ([]types.Module, error) {
	resp, err := p.request(ctx, "modules", nil)
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support modules request", err)
	}
	body, err := decodeBody[struct {
		Modules []struct {
			ID             any    `json:"id"`
			Name           string `json:"name"`
			Path           string `json:"path"`
			SymbolStatus   string `json:"symbolStatus"`
		} `json:"modules"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]types.Module, len(body.Modules))
	for i, m := range body.Modules {
		id, _ := m.ID.(string)
		out[i] = types.Module{ID: id, Name: m.Name, Path: m.Path, Symbols: m.SymbolStatus != ""}
	}
	return out, nil
}

func (p *Proxy) LoadedSources(ctx context.Context) ([]types.Source, error) {
	resp, err := p.request(ctx, "loadedSources", nil)
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support loaded-sources request", err)
	}
	body, err := decodeBody[struct {
		Sources []struct {
			Path string `json:"path"`
			Ref  int    `json:"sourceReference"`
		} `json:"sources"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]types.Source, len(body.Sources))
	for i, s := range body.Sources {
		out[i] = types.Source{Path: s.Path, Ref: s.Ref}
	}
	return out, nil
}

// FindSymbol, VariableLocation and ExpandMacro are not part of the
// common adapter protocol's standard request set; they are forwarded as
// custom commands so adapters built against a richer dialect (e.g. a
// native compiled-language adapter exposing symbol tables) can still
// answer them.
func (p *Proxy) FindSymbol(ctx context.Context, name string) (*types.SymbolLocation, error) {
	resp, err := p.request(ctx, "cogDebugFindSymbol", map[string]any{"name": name})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support symbol lookup", err)
	}
	body, err := decodeBody[struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Path    string `json:"path"`
		Line    int    `json:"line"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.SymbolLocation{Name: body.Name, Address: body.Address, Source: types.Source{Path: body.Path}, Line: body.Line}, nil
}

func (p *Proxy) VariableLocation(ctx context.Context, name string, frameID int) (*types.VariableLocation, error) {
	resp, err := p.request(ctx, "cogDebugVariableLocation", map[string]any{"name": name, "frameId": frameID})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support variable location lookup", err)
	}
	body, err := decodeBody[struct {
		Address string `json:"address"`
		Path    string `json:"path"`
		Line    int    `json:"line"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.VariableLocation{Address: body.Address, Source: types.Source{Path: body.Path}, Line: body.Line}, nil
}

func (p *Proxy) ExpandMacro(ctx context.Context, name string) (*types.MacroExpansion, error) {
	resp, err := p.request(ctx, "cogDebugExpandMacro", map[string]any{"name": name})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support macro expansion", err)
	}
	body, err := decodeBody[struct {
		Expansion string `json:"expansion"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return &types.MacroExpansion{Expansion: body.Expansion}, nil
}

func (p *Proxy) ReadMemory(ctx context.Context, addr string, size int) (*types.MemoryReadResult, error) {
	resp, err := p.request(ctx, "readMemory", map[string]any{"memoryReference": addr, "count": size})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support memory reads", err)
	}
	body, err := decodeBody[struct {
		Address         string `json:"address"`
		Data            string `json:"data"`
		UnreadableBytes int    `json:"unreadableBytes"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	data, decErr := base64.StdEncoding.DecodeString(body.Data)
	if decErr != nil {
		return nil, drivererr.Wrap(drivererr.Protocol, "decode readMemory payload", decErr)
	}
	return &types.MemoryReadResult{Address: body.Address, Data: data, UnreadableBytes: body.UnreadableBytes}, nil
}

func (p *Proxy) WriteMemory(ctx context.Context, addr string, data []byte) (*types.MemoryWriteResult, error) {
	resp, err := p.request(ctx, "writeMemory", map[string]any{
		"memoryReference": addr,
		"data":            base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support memory writes", err)
	}
	body, err := decodeBody[struct {
		BytesWritten int `json:"bytesWritten"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	written := body.BytesWritten
	if written == 0 {
		written = len(data)
	}
	return &types.MemoryWriteResult{BytesWritten: written}, nil
}

func (p *Proxy) Disassemble(ctx context.Context, addr string, count, offset int, resolveSymbols bool) ([]types.Instruction, error) {
	resp, err := p.request(ctx, "disassemble", map[string]any{
		"memoryReference":        addr,
		"instructionCount":       count,
		"instructionOffset":      offset,
		"resolveSymbols":         resolveSymbols,
	})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support disassembly", err)
	}
	body, err := decodeBody[struct {
		Instructions []struct {
			Address          string `json:"address"`
			Instruction      string `json:"instruction"`
			InstructionBytes string `json:"instructionBytes"`
			Symbol           string `json:"symbol"`
			Line             int    `json:"line"`
		} `json:"instructions"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	out := make([]types.Instruction, len(body.Instructions))
	for i, in := range body.Instructions {
		out[i] = types.Instruction{
			Address:          in.Address,
			Instruction:      in.Instruction,
			InstructionBytes: in.InstructionBytes,
			Symbol:           in.Symbol,
			Line:             in.Line,
		}
	}
	return out, nil
}

func (p *Proxy) ReadRegisters(ctx context.Context, threadID int) ([]types.Register, error) {
	resp, err := p.request(ctx, "cogDebugReadRegisters", map[string]any{"threadId": threadID})
	if err != nil {
		return nil, drivererr.Wrap(drivererr.NotSupported, "adapter does not support register reads", err)
	}
	body, err := decodeBody[struct {
		Registers []types.Register `json:"registers"`
	}](resp.Body)
	if err != nil {
		return nil, err
	}
	return body.Registers, nil
}

func (p *Proxy) WriteRegister(ctx context.Context, threadID int, name, value string) error {
	_, err := p.request(ctx, "cogDebugWriteRegister", map[string]any{
		"threadId": threadID,
		"name":     name,
		"value":    value,
	})
	if err != nil {
		return drivererr.Wrap(drivererr.NotSupported, "adapter does not support register writes", err)
	}
	return nil
}

func (p *Proxy) Cancel(ctx context.Context, requestID, progressToken string) error {
	_, err := p.request(ctx, "cancel", map[string]any{"requestId": requestID, "progressId": progressToken})
	return err
}

func (p *Proxy) TerminateThreads(ctx context.Context, threadIDs []int) error {
	_, err := p.request(ctx, "terminateThreads", map[string]any{"threadIds": threadIDs})
	if err != nil {
		return drivererr.Wrap(drivererr.NotSupported, "adapter does not support terminate-threads", err)
	}
	return nil
}
