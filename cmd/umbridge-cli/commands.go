package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/umbridge-go/umbridge/client"
	"github.com/umbridge-go/umbridge/wire"
)

// parseBundle parses "1,2;3,4" into [][]float64{{1,2},{3,4}} — one input
// vector per semicolon-separated group, one component per comma.
func parseBundle(s string) ([][]float64, error) {
	if s == "" {
		return nil, nil
	}
	groups := strings.Split(s, ";")
	bundle := make([][]float64, len(groups))
	for i, g := range groups {
		vec, err := parseVector(g)
		if err != nil {
			return nil, fmt.Errorf("input group %d: %w", i, err)
		}
		bundle[i] = vec
	}
	return bundle, nil
}

func parseVector(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d (%q): %w", i, p, err)
		}
		vec[i] = v
	}
	return vec, nil
}

func clientOpts(cmd *cobra.Command) []client.Option {
	shmem, _ := cmd.Flags().GetBool("shmem")
	var opts []client.Option
	if shmem {
		opts = append(opts, client.WithShMem(true))
	}
	return opts
}

func newClient(cmd *cobra.Command, name string) (*client.Client, context.Context, context.CancelFunc, error) {
	url, _ := cmd.Flags().GetString("url")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	cl, err := client.New(ctx, url, name, clientOpts(cmd)...)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return cl, ctx, cancel, nil
}

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the server's protocol version and hosted model names",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, _ := cmd.Flags().GetString("url")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/Info", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var info wire.InfoResponse
			if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
				return fmt.Errorf("decode /Info response: %w", err)
			}
			fmt.Printf("protocol version: %v\n", info.ProtocolVersion)
			fmt.Printf("models: %s\n", strings.Join(info.Models, ", "))
			return nil
		},
	}
}

func newModelInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modelinfo <model>",
		Short: "Print a model's capabilities and vector sizes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, _, cancel, err := newClient(cmd, args[0])
			if err != nil {
				return err
			}
			defer cancel()

			inSizes, err := cl.InputSizes(nil)
			if err != nil {
				return err
			}
			outSizes, err := cl.OutputSizes(nil)
			if err != nil {
				return err
			}
			fmt.Printf("model:          %s\n", cl.Name())
			fmt.Printf("input sizes:    %v\n", inSizes)
			fmt.Printf("output sizes:   %v\n", outSizes)
			fmt.Printf("evaluate:       %v\n", cl.SupportsEvaluate())
			fmt.Printf("gradient:       %v\n", cl.SupportsGradient())
			fmt.Printf("applyJacobian:  %v\n", cl.SupportsApplyJacobian())
			fmt.Printf("applyHessian:   %v\n", cl.SupportsApplyHessian())
			fmt.Printf("using shmem:    %v\n", cl.UsingShMem())
			return nil
		},
	}
}

func newEvaluateCommand() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "evaluate <model>",
		Short: "Call Evaluate on a hosted model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := parseBundle(input)
			if err != nil {
				return fmt.Errorf("--input: %w", err)
			}
			cl, ctx, cancel, err := newClient(cmd, args[0])
			if err != nil {
				return err
			}
			defer cancel()

			output, err := cl.Evaluate(ctx, bundle, nil)
			if err != nil {
				return err
			}
			fmt.Println(formatBundle(output))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", `input vectors, e.g. "1,2;3,4" for two input vectors`)
	return cmd
}

func newGradientCommand() *cobra.Command {
	var input, sens string
	var outWrt, inWrt int
	cmd := &cobra.Command{
		Use:   "gradient <model>",
		Short: "Call Gradient on a hosted model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := parseBundle(input)
			if err != nil {
				return fmt.Errorf("--input: %w", err)
			}
			sensVec, err := parseVector(sens)
			if err != nil {
				return fmt.Errorf("--sens: %w", err)
			}
			cl, ctx, cancel, err := newClient(cmd, args[0])
			if err != nil {
				return err
			}
			defer cancel()

			out, err := cl.Gradient(ctx, outWrt, inWrt, bundle, sensVec, nil)
			if err != nil {
				return err
			}
			fmt.Println(formatVector(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "input vectors")
	cmd.Flags().StringVar(&sens, "sens", "", "sensitivity vector")
	cmd.Flags().IntVar(&outWrt, "out-wrt", 0, "output slot index")
	cmd.Flags().IntVar(&inWrt, "in-wrt", 0, "input slot index")
	return cmd
}

func newApplyJacobianCommand() *cobra.Command {
	var input, vec string
	var outWrt, inWrt int
	cmd := &cobra.Command{
		Use:   "apply-jacobian <model>",
		Short: "Call ApplyJacobian on a hosted model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := parseBundle(input)
			if err != nil {
				return fmt.Errorf("--input: %w", err)
			}
			vecVec, err := parseVector(vec)
			if err != nil {
				return fmt.Errorf("--vec: %w", err)
			}
			cl, ctx, cancel, err := newClient(cmd, args[0])
			if err != nil {
				return err
			}
			defer cancel()

			out, err := cl.ApplyJacobian(ctx, outWrt, inWrt, bundle, vecVec, nil)
			if err != nil {
				return err
			}
			fmt.Println(formatVector(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "input vectors")
	cmd.Flags().StringVar(&vec, "vec", "", "direction vector")
	cmd.Flags().IntVar(&outWrt, "out-wrt", 0, "output slot index")
	cmd.Flags().IntVar(&inWrt, "in-wrt", 0, "input slot index")
	return cmd
}

func newApplyHessianCommand() *cobra.Command {
	var input, sens, vec string
	var outWrt, inWrt1, inWrt2 int
	cmd := &cobra.Command{
		Use:   "apply-hessian <model>",
		Short: "Call ApplyHessian on a hosted model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := parseBundle(input)
			if err != nil {
				return fmt.Errorf("--input: %w", err)
			}
			sensVec, err := parseVector(sens)
			if err != nil {
				return fmt.Errorf("--sens: %w", err)
			}
			vecVec, err := parseVector(vec)
			if err != nil {
				return fmt.Errorf("--vec: %w", err)
			}
			cl, ctx, cancel, err := newClient(cmd, args[0])
			if err != nil {
				return err
			}
			defer cancel()

			out, err := cl.ApplyHessian(ctx, outWrt, inWrt1, inWrt2, bundle, sensVec, vecVec, nil)
			if err != nil {
				return err
			}
			fmt.Println(formatVector(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "input vectors")
	cmd.Flags().StringVar(&sens, "sens", "", "sensitivity vector")
	cmd.Flags().StringVar(&vec, "vec", "", "direction vector")
	cmd.Flags().IntVar(&outWrt, "out-wrt", 0, "output slot index")
	cmd.Flags().IntVar(&inWrt1, "in-wrt1", 0, "first input slot index")
	cmd.Flags().IntVar(&inWrt2, "in-wrt2", 0, "second input slot index")
	return cmd
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatBundle(b [][]float64) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = formatVector(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
