package payload

// Ordered alias lists. The first key present in a payload wins.
var (
	idKeys          = []string{"id", "entity_id", "entityId"}
	nameKeys        = []string{"name", "display_name", "displayName"}
	colorKeys       = []string{"color", "colour", "color_hex", "colorHex"}
	transportKeys   = []string{"transport_mode", "transportMode", "transport_type", "transportType"}
	platformIDsKeys = []string{"platform_ids", "platformIds", "platforms", "stops"}
	stationIDKeys   = []string{"station_id", "stationId", "station"}
	routeIDsKeys    = []string{"route_ids", "routeIds", "routes"}
	pos1Keys        = []string{"pos1", "pos_1", "position1", "position_1", "start"}
	pos2Keys        = []string{"pos2", "pos_2", "position2", "position_2", "end"}
	corner1Keys     = []string{"corner1", "corner_1", "pos1", "pos_1", "min"}
	corner2Keys     = []string{"corner2", "corner_2", "pos2", "pos_2", "max"}
	boundsKeys      = []string{"bounds", "area", "bounding_box", "boundingBox"}

	nodePosKeys     = []string{"node_pos", "nodePos", "pos", "position", "node"}
	connectionsKeys = []string{"connections", "conns", "connection_list", "connectionList"}
	targetKeys      = []string{"node_pos", "nodePos", "target", "to", "pos", "position"}
	railTypeKeys    = []string{"rail_type", "railType", "type"}
	yStartKeys      = []string{"y_start", "yStart", "start_y", "startY"}
	yEndKeys        = []string{"y_end", "yEnd", "end_y", "endY"}
	vRadiusKeys     = []string{"vertical_curve_radius", "verticalCurveRadius", "v_radius", "vRadius"}
	directionKeys   = []string{"direction", "rail_direction", "railDirection"}
	secondaryKeys   = []string{"secondary_direction", "secondaryDirection", "is_secondary", "isSecondary"}

	xKeys = []string{"x", "X"}
	yKeys = []string{"y", "Y"}
	zKeys = []string{"z", "Z"}
)

// curveKeys holds the aliases of one curve variant, nested and flattened.
type curveKeys struct {
	nested   []string
	h        []string
	k        []string
	r        []string
	tStart   []string
	tEnd     []string
	reverse  []string
	straight []string
}

// Field names inside a nested curve object.
var (
	nestedH        = []string{"h"}
	nestedK        = []string{"k"}
	nestedR        = []string{"r", "radius"}
	nestedTStart   = []string{"t_start", "tStart", "start"}
	nestedTEnd     = []string{"t_end", "tEnd", "end"}
	nestedReverse  = []string{"reverse", "reverse_t", "reverseT"}
	nestedStraight = []string{"is_straight", "isStraight", "straight"}
)

var primaryCurveKeys = curveKeys{
	nested:   []string{"primary", "curve1", "primary_curve", "primaryCurve"},
	h:        []string{"h1", "h_1"},
	k:        []string{"k1", "k_1"},
	r:        []string{"r1", "r_1", "radius1", "radius_1"},
	tStart:   []string{"t_start_1", "tStart1", "t_start1"},
	tEnd:     []string{"t_end_1", "tEnd1", "t_end1"},
	reverse:  []string{"reverse_t_1", "reverseT1", "reverse1", "reverse_1"},
	straight: []string{"is_straight_1", "isStraight1", "straight1", "straight_1"},
}

var secondaryCurveKeys = curveKeys{
	nested:   []string{"secondary", "curve2", "secondary_curve", "secondaryCurve"},
	h:        []string{"h2", "h_2"},
	k:        []string{"k2", "k_2"},
	r:        []string{"r2", "r_2", "radius2", "radius_2"},
	tStart:   []string{"t_start_2", "tStart2", "t_start2"},
	tEnd:     []string{"t_end_2", "tEnd2", "t_end2"},
	reverse:  []string{"reverse_t_2", "reverseT2", "reverse2", "reverse_2"},
	straight: []string{"is_straight_2", "isStraight2", "straight2", "straight_2"},
}
