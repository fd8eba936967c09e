package cyphergrammar

import "strings"

// FunctionKind classifies a built-in Cypher function.
type FunctionKind int

const (
	KindUnknown FunctionKind = iota
	KindAggregate
	KindScalar
	KindPredicate
	KindList
	KindMath
	KindString
	KindTemporal
	KindSpatial
)

func (k FunctionKind) String() string {
	switch k {
	case KindAggregate:
		return "aggregate"
	case KindScalar:
		return "scalar"
	case KindPredicate:
		return "predicate"
	case KindList:
		return "list"
	case KindMath:
		return "math"
	case KindString:
		return "string"
	case KindTemporal:
		return "temporal"
	case KindSpatial:
		return "spatial"
	default:
		return "unknown"
	}
}

// functionKinds maps lowercase function names to their kind.
var functionKinds = map[string]FunctionKind{
	// Aggregation
	"count":          KindAggregate,
	"sum":            KindAggregate,
	"avg":            KindAggregate,
	"min":            KindAggregate,
	"max":            KindAggregate,
	"collect":        KindAggregate,
	"stdev":          KindAggregate,
	"stdevp":         KindAggregate,
	"percentilecont": KindAggregate,
	"percentiledisc": KindAggregate,

	// Scalar
	"id":              KindScalar,
	"elementid":       KindScalar,
	"type":            KindScalar,
	"valuetype":       KindScalar,
	"properties":      KindScalar,
	"startnode":       KindScalar,
	"endnode":         KindScalar,
	"coalesce":        KindScalar,
	"nullif":          KindScalar,
	"head":            KindScalar,
	"last":            KindScalar,
	"size":            KindScalar,
	"length":          KindScalar,
	"timestamp":       KindScalar,
	"randomuuid":      KindScalar,
	"tostring":        KindScalar,
	"tostringornull":  KindScalar,
	"toboolean":       KindScalar,
	"tobooleanornull": KindScalar,
	"tointeger":       KindScalar,
	"tointegerornull": KindScalar,
	"tofloat":         KindScalar,
	"tofloatornull":   KindScalar,
	"char_length":     KindScalar,

	// Predicate
	"exists":  KindPredicate,
	"isempty": KindPredicate,
	"isnan":   KindPredicate,

	// List
	"keys":          KindList,
	"labels":        KindList,
	"nodes":         KindList,
	"relationships": KindList,
	"range":         KindList,
	"reverse":       KindList,
	"tail":          KindList,
	"tobooleanlist": KindList,
	"tointegerlist": KindList,
	"tofloatlist":   KindList,
	"tostringlist":  KindList,

	// Math
	"abs":      KindMath,
	"ceil":     KindMath,
	"floor":    KindMath,
	"round":    KindMath,
	"sign":     KindMath,
	"rand":     KindMath,
	"sqrt":     KindMath,
	"log":      KindMath,
	"log10":    KindMath,
	"exp":      KindMath,
	"e":        KindMath,
	"pi":       KindMath,
	"sin":      KindMath,
	"cos":      KindMath,
	"tan":      KindMath,
	"cot":      KindMath,
	"asin":     KindMath,
	"acos":     KindMath,
	"atan":     KindMath,
	"atan2":    KindMath,
	"degrees":  KindMath,
	"radians":  KindMath,
	"haversin": KindMath,

	// String
	"left":      KindString,
	"right":     KindString,
	"ltrim":     KindString,
	"rtrim":     KindString,
	"btrim":     KindString,
	"trim":      KindString,
	"tolower":   KindString,
	"toupper":   KindString,
	"replace":   KindString,
	"substring": KindString,
	"split":     KindString,
	"normalize": KindString,

	// Temporal
	"date":                     KindTemporal,
	"datetime":                 KindTemporal,
	"localdatetime":            KindTemporal,
	"localtime":                KindTemporal,
	"time":                     KindTemporal,
	"duration":                 KindTemporal,
	"date.truncate":            KindTemporal,
	"datetime.truncate":        KindTemporal,
	"datetime.fromepoch":       KindTemporal,
	"datetime.fromepochmillis": KindTemporal,
	"duration.between":         KindTemporal,
	"duration.inmonths":        KindTemporal,
	"duration.indays":          KindTemporal,
	"duration.inseconds":       KindTemporal,

	// Spatial
	"point":            KindSpatial,
	"point.distance":   KindSpatial,
	"point.withinbbox": KindSpatial,
	"distance":         KindSpatial,
}

// LookupFunction reports the kind of a built-in function. Names are matched
// case-insensitively.
func LookupFunction(name string) (FunctionKind, bool) {
	k, ok := functionKinds[strings.ToLower(name)]
	return k, ok
}

// IsAggregate reports whether name is a built-in aggregating function.
func IsAggregate(name string) bool {
	k, _ := LookupFunction(name)
	return k == KindAggregate
}
