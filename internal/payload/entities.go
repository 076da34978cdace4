package payload

import (
	"github.com/specialistvlad/railmap/internal/model"
)

// DecodeRoute normalises a route payload. Denormalised columns from the
// source row take precedence over payload fields.
func DecodeRoute(rec model.SourceRecord) (model.RouteRecord, error) {
	o, err := decodeObject(rec.Payload)
	if err != nil {
		return model.RouteRecord{}, err
	}
	r := model.RouteRecord{
		ID:            firstNonEmpty(rec.EntityID, o.str(idKeys)),
		Name:          firstNonEmpty(rec.Name, o.str(nameKeys)),
		Color:         firstNonEmpty(rec.Color, o.color()),
		TransportMode: o.str(transportKeys),
		PlatformIDs:   o.stringList(platformIDsKeys),
	}
	return r, nil
}

// DecodePlatform normalises a platform payload.
func DecodePlatform(rec model.SourceRecord) (model.PlatformRecord, error) {
	o, err := decodeObject(rec.Payload)
	if err != nil {
		return model.PlatformRecord{}, err
	}
	p := model.PlatformRecord{
		ID:        firstNonEmpty(rec.EntityID, o.str(idKeys)),
		Name:      firstNonEmpty(rec.Name, o.str(nameKeys)),
		StationID: o.str(stationIDKeys),
		RouteIDs:  o.stringList(routeIDsKeys),
	}
	if pos, ok := o.position(pos1Keys); ok {
		p.Pos1 = pos
	}
	if pos, ok := o.position(pos2Keys); ok {
		p.Pos2 = pos
	}
	return p, nil
}

// DecodeStation normalises a station payload. The bounding box may be given
// as a nested bounds object or as two top-level corners.
func DecodeStation(rec model.SourceRecord) (model.StationRecord, error) {
	o, err := decodeObject(rec.Payload)
	if err != nil {
		return model.StationRecord{}, err
	}
	s := model.StationRecord{
		ID:    firstNonEmpty(rec.EntityID, o.str(idKeys)),
		Name:  firstNonEmpty(rec.Name, o.str(nameKeys)),
		Color: firstNonEmpty(rec.Color, o.color()),
	}
	src := o
	if nested, ok := o.obj(boundsKeys); ok {
		src = nested
	}
	c1, ok1 := src.position(corner1Keys)
	c2, ok2 := src.position(corner2Keys)
	if ok1 && ok2 {
		box := model.NewBox(*c1, *c2)
		s.Bounds = &box
	}
	return s, nil
}

func (o object) color() string {
	v, ok := o.lookup(colorKeys)
	if !ok {
		return ""
	}
	return formatColor(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
