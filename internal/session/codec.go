package session

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/example/annotator/internal/region"
)

// RegionList is a region slice that round-trips through YAML with a "type"
// key naming each variant.
type RegionList []region.Region

// MarshalYAML implements yaml.Marshaler.
func (l RegionList) MarshalYAML() (interface{}, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, r := range l {
		n, err := encodeRegion(r)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}
	return seq, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *RegionList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: regions must be a list", value.Line)
	}
	out := make(RegionList, 0, len(value.Content))
	for _, item := range value.Content {
		r, err := decodeRegion(item)
		if err != nil {
			return err
		}
		out = append(out, r)
	}
	*l = out
	return nil
}

// RegionValue wraps a single region for YAML.
type RegionValue struct {
	region.Region
}

// MarshalYAML implements yaml.Marshaler.
func (v RegionValue) MarshalYAML() (interface{}, error) {
	if v.Region == nil {
		return nil, nil
	}
	return encodeRegion(v.Region)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *RegionValue) UnmarshalYAML(value *yaml.Node) error {
	r, err := decodeRegion(value)
	if err != nil {
		return err
	}
	v.Region = r
	return nil
}

func encodeRegion(r region.Region) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(r); err != nil {
		return nil, fmt.Errorf("encode %s region: %w", r.Kind(), err)
	}
	head := []*yaml.Node{
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: "type"},
		{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(r.Kind())},
	}
	n.Content = append(head, n.Content...)
	return &n, nil
}

func decodeRegion(n *yaml.Node) (region.Region, error) {
	var head struct {
		Type region.Kind `yaml:"type"`
	}
	if err := n.Decode(&head); err != nil {
		return nil, err
	}
	var (
		r   region.Region
		err error
	)
	switch head.Type {
	case region.KindPoint:
		var v region.Point
		err = n.Decode(&v)
		r = v
	case region.KindBox:
		var v region.Box
		err = n.Decode(&v)
		r = v
	case region.KindPolygon:
		var v region.Polygon
		err = n.Decode(&v)
		r = v
	case region.KindLine:
		var v region.Line
		err = n.Decode(&v)
		r = v
	case region.KindExpandingLine:
		var v region.ExpandingLine
		err = n.Decode(&v)
		r = v
	case region.KindKeypoints:
		var v region.Keypoints
		err = n.Decode(&v)
		r = v
	case region.KindPixel:
		var v region.Pixel
		err = n.Decode(&v)
		r = v
	case "":
		return nil, fmt.Errorf("line %d: region without type", n.Line)
	default:
		return nil, fmt.Errorf("line %d: unknown region type %q", n.Line, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("line %d: %s region: %w", n.Line, head.Type, err)
	}
	return r, nil
}
