// morphtool is a CLI utility for inspecting morph-animated face models.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Faultbox/facemorph/internal/config"
	"github.com/Faultbox/facemorph/internal/engine/morph"
	"github.com/Faultbox/facemorph/internal/logger"
	"github.com/Faultbox/facemorph/internal/reconstruct"
	"github.com/Faultbox/facemorph/internal/scene"
)

// errUsage marks errors that should be followed by the command's usage line.
var errUsage = errors.New("usage")

func main() {
	if err := logger.Init("warn", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
	}
	defer logger.Sync()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	command, rest := args[0], args[1:]
	var err error
	switch command {
	case "info":
		err = cmdInfo(rest, stdout)
	case "sample":
		err = cmdSample(rest, stdout)
	case "layout":
		err = cmdLayout(rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 1
	}

	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Usage: morphtool %v\n", strings.TrimPrefix(err.Error(), errUsage.Error()+": "))
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `morphtool - morph-animated face model utility

Usage:
  morphtool <command> [options]

Commands:
  info <model.glb>                             Show meshes, blend shapes and tracks
  sample [-t sec | -frame N -alpha A] <model>  Print interpolated weights
  layout [-root dir] <input>                   Show where reconstruction writes outputs

Examples:
  morphtool info output/clip/animation/dynamic_animation.glb
  morphtool sample -t 1.25 face.glb
  morphtool sample -frame 3 -alpha 0.5 face.glb
  morphtool layout videos/clip.mp4`)
}

func usage(line string) error {
	return fmt.Errorf("%w: %s", errUsage, line)
}

func cmdInfo(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return usage("info <model.glb>")
	}

	g, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Model:    %s\n", g.Path)
	fmt.Fprintf(w, "Meshes:   %d\n", len(g.Meshes))
	fmt.Fprintf(w, "Channels: %d\n", len(g.Channels))

	for _, m := range g.Meshes {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Mesh %s (%s)\n", m.Node, m.Name)
		fmt.Fprintf(w, "  Vertices:  %d\n", m.VertexCount())
		fmt.Fprintf(w, "  Triangles: %d\n", len(m.Indices)/3)

		set, err := extract(m)
		if err != nil {
			fmt.Fprintf(w, "  Targets:   invalid (%v)\n", err)
			continue
		}
		if set.TargetCount() == 0 {
			fmt.Fprintln(w, "  Targets:   none")
		} else {
			fmt.Fprintf(w, "  Targets:   %d (%s)\n", set.TargetCount(), strings.Join(set.Names, ", "))
			fmt.Fprintf(w, "  Deltas:    %d texels\n", len(set.Deltas))
		}
		fmt.Fprintf(w, "  Texture:   %s\n", describeTexture(m.Texture))

		for _, ch := range g.Channels {
			if ch.Target != m.Node {
				continue
			}
			track := buildTrack(ch, set.TargetCount())
			fmt.Fprintf(w, "  Animation: %s, %d keys, %.3fs", ch.Animation, track.KeyCount(), track.Duration()/1000)
			if skipped := len(track.Skipped()); skipped > 0 {
				fmt.Fprintf(w, " (%d keys skipped)", skipped)
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}

func describeTexture(t *scene.TextureRef) string {
	switch {
	case t == nil:
		return "none"
	case t.Embedded():
		return fmt.Sprintf("embedded %s, %d bytes", t.MimeType, len(t.Data))
	default:
		return t.Path
	}
}

func cmdSample(args []string, w io.Writer) error {
	const line = "sample [-t sec | -frame N -alpha A] [-anim name] <model.glb>"
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	seconds := fs.Float64("t", -1, "Clock time in seconds")
	frame := fs.Int("frame", -1, "Key index")
	alpha := fs.Float64("alpha", 0, "Blend toward the next key, 0..1")
	anim := fs.String("anim", "", "Animation name (default: first per node)")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return usage(line)
	}
	if (*seconds < 0) == (*frame < 0) {
		return usage(line)
	}

	g, err := scene.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	for _, m := range g.Meshes {
		set, err := extract(m)
		if err != nil {
			return fmt.Errorf("mesh %s: %w", m.Node, err)
		}
		if set.TargetCount() == 0 {
			continue
		}

		var track *morph.Track
		if ch := g.ChannelFor(m.Node, *anim); ch != nil {
			track = buildTrack(ch, set.TargetCount())
		}
		a := morph.NewAnimator(set.Defaults, track, nil)
		if *frame >= 0 {
			a.SetFrame(*frame, float32(*alpha))
		} else {
			a.AdvanceToTime(*seconds)
		}

		fmt.Fprintf(w, "%s:\n", m.Node)
		for i, v := range a.Weights() {
			fmt.Fprintf(w, "  %-16s %8.4f\n", set.Names[i], v)
		}
	}
	return nil
}

func cmdLayout(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	root := fs.String("root", config.Default().Reconstruction.OutputRoot, "Reconstruction output root")
	if err := fs.Parse(args); err != nil || fs.NArg() < 1 {
		return usage("layout [-root dir] <input>")
	}

	l := reconstruct.LayoutFor(*root, fs.Arg(0))
	fmt.Fprintf(w, "Name:      %s\n", l.Name)
	fmt.Fprintf(w, "Directory: %s\n", l.Dir)
	fmt.Fprintf(w, "Model:     %s\n", l.Model)
	fmt.Fprintf(w, "Manual:    %s\n", l.ManualModel)
	fmt.Fprintf(w, "Frames:    %s\n", l.Frames)
	fmt.Fprintf(w, "Inputs:    %s\n", l.Inputs)
	fmt.Fprintf(w, "Landmarks: %s\n", l.Landmarks)
	return nil
}

func extract(m *scene.Mesh) (*morph.Set, error) {
	variants := make([]morph.Variant, len(m.Targets))
	for i, t := range m.Targets {
		variants[i] = morph.Variant{Name: t.Name, Positions: t.Positions, Normals: t.Normals}
		if i < len(m.DefaultWeights) {
			variants[i].Default = m.DefaultWeights[i]
		}
	}
	return morph.Extract(m.Positions, m.Normals, variants)
}

func buildTrack(ch *scene.Channel, targets int) *morph.Track {
	keys := make([]morph.Keyframe, len(ch.Keys))
	for i, k := range ch.Keys {
		keys[i] = morph.Keyframe{Time: k.Time, Weights: k.Weights}
	}
	return morph.BuildTrack(ch.Animation, keys, targets)
}
