package navigation

import (
	"github.com/google/uuid"

	"wayfinder/pkg/ontology"
)

// CombineRoutes splices a short return-to-route route with the remainder
// of the original route past rejoinID. The rejoin node is the return
// route's end and is not duplicated. Returns nil when rejoinID is absent
// from the original path.
//
// Remaining distance and duration are pro-rated by the remaining-hop
// fraction of the original route rather than recomputed from the stitched
// instruction legs; the stitcher test pins these numbers.
func CombineRoutes(returnRoute, original *ontology.Route, rejoinID string) *ontology.Route {
	if returnRoute == nil || original == nil || len(returnRoute.Path) == 0 {
		return nil
	}
	rejoinIdx := original.IndexOf(rejoinID)
	if rejoinIdx < 0 {
		return nil
	}

	path := make([]string, 0, len(returnRoute.Path)+len(original.Path)-rejoinIdx-1)
	path = append(path, returnRoute.Path...)
	path = append(path, original.Path[rejoinIdx+1:]...)

	remaining := float64(len(original.Path)-rejoinIdx-1) / float64(len(original.Path))

	combined := &ontology.Route{
		RouteID:         uuid.New().String(),
		StartID:         returnRoute.StartID,
		EndID:           original.EndID,
		Path:            path,
		DistanceMeters:  returnRoute.DistanceMeters + original.DistanceMeters*remaining,
		DurationSeconds: returnRoute.DurationSeconds + original.DurationSeconds*remaining,
	}

	combined.Instructions = append(combined.Instructions, returnRoute.Instructions...)
	for _, inst := range original.Instructions {
		if original.IndexOf(inst.FromID) > rejoinIdx {
			combined.Instructions = append(combined.Instructions, inst)
		}
	}
	return combined
}
