package iphandler

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
)

// Script is a JavaScript handler. The source must define a function
// handle(target); target has region, name, id and ip fields. console.log
// writes to the debug log.
type Script struct {
	Path   string
	Source string
}

// Handle evaluates the script in a fresh runtime and calls handle. A thrown
// exception or an interrupted run is returned as an error.
func (s *Script) Handle(ctx context.Context, t Target) (err error) {
	vm := goja.New()

	logger := log.With().Str("handler", s.Path).Logger()
	if err := vm.Set("console", map[string]any{
		"log": func(args ...any) {
			logger.Debug().Ctx(ctx).Msg(fmt.Sprint(args...))
		},
		"error": func(args ...any) {
			logger.Error().Ctx(ctx).Msg(fmt.Sprint(args...))
		},
	}); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", s.Path, r)
		}
	}()

	if _, err := vm.RunScript(s.Path, s.Source); err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}

	handle, ok := goja.AssertFunction(vm.Get("handle"))
	if !ok {
		return fmt.Errorf("%s does not define function handle(target)", s.Path)
	}

	target := map[string]any{"region": t.Region, "name": t.Name, "id": t.ID, "ip": t.IP}
	if _, err := handle(goja.Undefined(), vm.ToValue(target)); err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}
	return nil
}
