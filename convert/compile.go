package convert

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"slate/ccss"
	"slate/state"
)

// Compile compiles single source (file or STDIN) and writes result to STDOUT.
func Compile(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compile")

	if err := prepareEnv(cmd, env, log); err != nil {
		return err
	}
	if cmd.Args().Len() > 1 {
		log.Warn("Mailformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	name, data, err := readInput(cmd)
	if err != nil {
		return err
	}
	text, err := decodeSource(data, env.Cfg.Compiler.SourceCharset)
	if err != nil {
		return err
	}

	sheet, err := env.Compiler().Parse(text)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	out, err := sheet.Evaluate(env.Defines)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	result := out.String()
	if len(result) > 0 {
		result += "\n"
	}
	if env.Verify {
		if err := verifyOutput(out, []byte(result), name, log); err != nil {
			return fmt.Errorf("output verification failed: %w", err)
		}
	}

	if _, err := io.WriteString(output(cmd), result); err != nil {
		return fmt.Errorf("unable to write result: %w", err)
	}
	log.Debug("Compiled", zap.String("source", name), zap.Int("blocks", len(out.Blocks)))
	return nil
}

// Dump writes internal representation of parsed source, useful when
// something does not come out as expected.
func Dump(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)

	name, data, err := readInput(cmd)
	if err != nil {
		return err
	}
	text, err := decodeSource(data, env.Cfg.Compiler.SourceCharset)
	if err != nil {
		return err
	}
	sheet, err := env.Compiler().Parse(text)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	_, err = sheet.WriteTo(output(cmd))
	return err
}

// Colors lists known color keywords.
func Colors(_ context.Context, cmd *cli.Command) error {
	w := output(cmd)
	for _, name := range ccss.ColorNames() {
		code, _ := ccss.LookupColor(name)
		if _, err := fmt.Fprintf(w, "%-22s %s\n", name, code); err != nil {
			return err
		}
	}
	return nil
}

func readInput(cmd *cli.Command) (string, []byte, error) {
	name := cmd.Args().Get(0)
	if len(name) == 0 || name == "-" {
		r := cmd.Root().Reader
		if r == nil {
			r = os.Stdin
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", nil, fmt.Errorf("unable to read STDIN: %w", err)
		}
		return "STDIN", data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", nil, fmt.Errorf("unable to read source: %w", err)
	}
	return name, data, nil
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
