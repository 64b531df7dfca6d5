package segment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"seehuhn.de/go/geom/vec"

	"github.com/example/annotator/internal/region"
)

// DefaultPrompt asks a vision model for normalized bounding boxes.
const DefaultPrompt = `Find every distinct object in the image.
Reply with JSON only, in this form:
{"objects":[{"label":"<name>","confidence":<0..1>,"box":{"x":<left>,"y":<top>,"w":<width>,"h":<height>}}]}
Coordinates are fractions of the image width and height.`

const defaultTimeout = 5 * time.Minute

// Ollama detects objects with a vision model served by Ollama.
type Ollama struct {
	client *api.Client
	Model  string
	Prompt string
	// MinConfidence drops weaker detections.
	MinConfidence float64
	newID         func() string
}

// NewOllama connects to the server at rawURL. Any path on the URL is
// ignored.
func NewOllama(rawURL, model string) (*Ollama, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: scheme and host required", rawURL)
	}
	base := &url.URL{Scheme: u.Scheme, Host: u.Host}
	return &Ollama{
		client: api.NewClient(base, http.DefaultClient),
		Model:  model,
		Prompt: DefaultPrompt,
		newID:  uuid.NewString,
	}, nil
}

// Segment sends the frame to the model and converts its detections.
func (o *Ollama) Segment(ctx context.Context, req Request) ([]region.Region, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("segment: no image")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTimeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, req.Image); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	prompt := o.Prompt
	if len(req.Classes) > 0 {
		prompt += "\nOnly report objects labelled one of: " + strings.Join(req.Classes, ", ") + "."
	}

	stream := false
	chat := &api.ChatRequest{
		Model: o.Model,
		Messages: []api.Message{{
			Role:    "user",
			Content: prompt,
			Images:  []api.ImageData{api.ImageData(buf.Bytes())},
		}},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
	}
	var content strings.Builder
	err := o.client.Chat(ctx, chat, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	dets, err := parseDetections(content.String())
	if err != nil {
		return nil, err
	}
	b := req.Image.Bounds()
	return o.toRegions(dets, req, b.Dx(), b.Dy()), nil
}

type detection struct {
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        region.Rect `json:"box"`
}

type detections struct {
	Objects []detection `json:"objects"`
}

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitize strips code fences, comments and trailing commas that models
// wrap around JSON, keeping the outermost object.
func sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func parseDetections(raw string) ([]detection, error) {
	clean := sanitize(raw)
	if !strings.HasPrefix(clean, "{") {
		return nil, fmt.Errorf("model reply is not JSON: %.60q", raw)
	}
	var d detections
	if err := json.Unmarshal([]byte(clean), &d); err != nil {
		return nil, fmt.Errorf("parse model reply: %w", err)
	}
	return d.Objects, nil
}

// toRegions converts detections to boxes, or to keypoints when the request
// names a definition. Boxes given in pixels are normalized by w and h.
func (o *Ollama) toRegions(dets []detection, req Request, w, h int) []region.Region {
	var out []region.Region
	for _, d := range dets {
		if d.Confidence < o.MinConfidence {
			continue
		}
		cls := ""
		idx := -1
		if len(req.Classes) > 0 {
			idx = slices.IndexFunc(req.Classes, func(c string) bool { return strings.EqualFold(c, d.Label) })
			if idx < 0 {
				continue
			}
			cls = req.Classes[idx]
		}
		box := normalizeBox(d.Box, w, h)
		if box.W <= 0 || box.H <= 0 {
			continue
		}
		base := region.Base{ID: o.newID(), Cls: cls, Color: region.ColorFor(idx)}
		if req.Keypoints != "" {
			size := max(box.W, box.H)
			out = append(out, region.Keypoints{
				Base:         base,
				DefinitionID: req.Keypoints,
				Points:       region.PlaceKeypoints(req.Definition, box.Center(), size),
			})
			continue
		}
		out = append(out, region.Box{Base: base, X: box.X, Y: box.Y, W: box.W, H: box.H})
	}
	return out
}

func normalizeBox(b region.Rect, w, h int) region.Rect {
	if (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) && w > 0 && h > 0 {
		b = region.Rect{X: b.X / float64(w), Y: b.Y / float64(h), W: b.W / float64(w), H: b.H / float64(h)}
	}
	lo := region.ClampPoint(vec.Vec2{X: b.X, Y: b.Y})
	hi := region.ClampPoint(vec.Vec2{X: b.X + b.W, Y: b.Y + b.H})
	return region.Rect{X: lo.X, Y: lo.Y, W: hi.X - lo.X, H: hi.Y - lo.Y}
}
