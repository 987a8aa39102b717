package folio

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// MotionStylesheet is the asset name the compiled presets are registered under.
const MotionStylesheet = "motion.css"

var presetNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Keyframe is one step of an animation. Offset is in the range [0, 1].
type Keyframe struct {
	Offset float64
	Style  map[string]string
}

// Preset is a named CSS animation that can be attached to any element.
type Preset struct {
	Name      string
	Duration  time.Duration
	Delay     time.Duration
	Easing    string
	Keyframes []Keyframe
}

var (
	FadeIn = Preset{
		Name:     "fade-in",
		Duration: 400 * time.Millisecond,
		Easing:   "ease-out",
		Keyframes: []Keyframe{
			{Offset: 0, Style: map[string]string{"opacity": "0"}},
			{Offset: 1, Style: map[string]string{"opacity": "1"}},
		},
	}

	SlideUp = Preset{
		Name:     "slide-up",
		Duration: 500 * time.Millisecond,
		Easing:   "cubic-bezier(0.22, 1, 0.36, 1)",
		Keyframes: []Keyframe{
			{Offset: 0, Style: map[string]string{"opacity": "0", "transform": "translateY(1.5rem)"}},
			{Offset: 1, Style: map[string]string{"opacity": "1", "transform": "none"}},
		},
	}

	SlideInLeft = Preset{
		Name:     "slide-in-left",
		Duration: 450 * time.Millisecond,
		Easing:   "ease-out",
		Keyframes: []Keyframe{
			{Offset: 0, Style: map[string]string{"opacity": "0", "transform": "translateX(-2rem)"}},
			{Offset: 1, Style: map[string]string{"opacity": "1", "transform": "none"}},
		},
	}

	ScaleIn = Preset{
		Name:     "scale-in",
		Duration: 300 * time.Millisecond,
		Easing:   "ease-out",
		Keyframes: []Keyframe{
			{Offset: 0, Style: map[string]string{"opacity": "0", "transform": "scale(0.95)"}},
			{Offset: 1, Style: map[string]string{"opacity": "1", "transform": "none"}},
		},
	}
)

// DefaultPresets returns the built-in presets.
func DefaultPresets() []Preset {
	return []Preset{FadeIn, SlideUp, SlideInLeft, ScaleIn}
}

// ClassName is the CSS class that applies the preset.
func (p Preset) ClassName() string { return "motion-" + p.Name }

func (p Preset) validate() error {
	if !presetNameRegex.MatchString(p.Name) {
		return fmt.Errorf("preset %q: invalid name", p.Name)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("preset %q: duration must be positive", p.Name)
	}
	if p.Delay < 0 {
		return fmt.Errorf("preset %q: delay must not be negative", p.Name)
	}
	if len(p.Keyframes) < 2 {
		return fmt.Errorf("preset %q: at least two keyframes are required", p.Name)
	}
	prev := -1.0
	for _, kf := range p.Keyframes {
		if kf.Offset < 0 || kf.Offset > 1 || kf.Offset <= prev {
			return fmt.Errorf("preset %q: keyframe offsets must be ascending within [0, 1]", p.Name)
		}
		prev = kf.Offset
	}
	return nil
}

// CSS renders the @keyframes rule and the class applying it. Users asking for
// reduced motion get no animation.
func (p Preset) CSS() string {
	var sb strings.Builder
	cls := p.ClassName()
	easing := p.Easing
	if easing == "" {
		easing = "ease"
	}

	fmt.Fprintf(&sb, "@keyframes %s {\n", cls)
	for _, kf := range p.Keyframes {
		fmt.Fprintf(&sb, "  %s%% {", strconv.FormatFloat(kf.Offset*100, 'f', -1, 64))
		props := make([]string, 0, len(kf.Style))
		for k := range kf.Style {
			props = append(props, k)
		}
		slices.Sort(props)
		for _, k := range props {
			fmt.Fprintf(&sb, " %s: %s;", k, kf.Style[k])
		}
		sb.WriteString(" }\n")
	}
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, ".%s {\n  animation: %s %dms %s %dms both;\n}\n",
		cls, cls, p.Duration.Milliseconds(), easing, p.Delay.Milliseconds())
	fmt.Fprintf(&sb, "@media (prefers-reduced-motion: reduce) {\n  .%s { animation: none; }\n}\n", cls)

	return sb.String()
}

// Motion is a set of animation presets compiled into one stylesheet asset.
type Motion struct {
	presets map[string]Preset
}

// NewMotion validates the presets and registers their CSS as MotionStylesheet.
// Without presets, DefaultPresets are used.
func NewMotion(assets AssetCollector, presets ...Preset) (*Motion, error) {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}

	m := &Motion{presets: make(map[string]Preset, len(presets))}

	var sb strings.Builder
	for _, p := range presets {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := m.presets[p.Name]; dup {
			return nil, fmt.Errorf("preset %q: registered twice", p.Name)
		}
		m.presets[p.Name] = p
		sb.WriteString(p.CSS())
	}

	if assets != nil {
		if err := assets.AddAsset(MotionStylesheet, []byte(sb.String())); err != nil {
			return nil, fmt.Errorf("add motion stylesheet: %w", err)
		}
	}

	return m, nil
}

// Preset looks up a preset by name.
func (m *Motion) Preset(name string) (Preset, bool) {
	p, ok := m.presets[name]
	return p, ok
}

// Animate attaches the named preset to n.
func (m *Motion) Animate(n *html.Node, name string) error {
	p, ok := m.presets[name]
	if !ok {
		return fmt.Errorf("unknown motion preset %q", name)
	}
	AddClass(n, p.ClassName())
	return nil
}

// AnimateDelay attaches the named preset to n and overrides its delay.
func (m *Motion) AnimateDelay(n *html.Node, name string, delay time.Duration) error {
	if err := m.Animate(n, name); err != nil {
		return err
	}
	SetStyle(n, "animation-delay", fmt.Sprintf("%dms", delay.Milliseconds()))
	return nil
}

// Stagger attaches the named preset to every node, delaying each one by step more
// than the previous, starting from the preset's own delay.
func (m *Motion) Stagger(nodes []*html.Node, name string, step time.Duration) error {
	p, ok := m.presets[name]
	if !ok {
		return fmt.Errorf("unknown motion preset %q", name)
	}
	for i, n := range nodes {
		if err := m.AnimateDelay(n, name, p.Delay+time.Duration(i)*step); err != nil {
			return err
		}
	}
	return nil
}
