package enrich

import (
	"context"
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/leadscore-cli/internal/model"
	"github.com/sells-group/leadscore-cli/internal/resilience"
	"github.com/sells-group/leadscore-cli/pkg/geocode"
)

const earthRadiusKM = 6371.0088

// NewPoint returns a lon/lat point in the XY layout.
func NewPoint(lat, lon float64) *geom.Point {
	return geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{lon, lat})
}

// HaversineKM returns the great-circle distance between two lon/lat points.
func HaversineKM(a, b *geom.Point) float64 {
	lat1, lon1 := toRad(a.Y()), toRad(a.X())
	lat2, lon2 := toRad(b.Y()), toRad(b.X())
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceResolver geocodes account addresses and measures their distance
// to a fixed reference point, usually the sales office.
type DistanceResolver struct {
	geocoder geocode.Provider
	breakers *resilience.ServiceBreakers
	ref      *geom.Point
	source   *CachedSource[geocode.Result]
}

// NewDistanceResolver creates a resolver. caches are consulted in order
// before the geocoder, which is called through the "geocode" breaker.
func NewDistanceResolver(g geocode.Provider, sb *resilience.ServiceBreakers, refLat, refLon float64, caches ...Cache) *DistanceResolver {
	return &DistanceResolver{
		geocoder: g,
		breakers: sb,
		ref:      NewPoint(refLat, refLon),
		source:   NewCachedSource[geocode.Result]("geocode", caches...),
	}
}

// Distance returns the distance in km from the reference point to the
// account, or nil when the account has no address or it could not be
// matched.
func (r *DistanceResolver) Distance(ctx context.Context, acct model.Account) (*float64, error) {
	if !acct.HasAddress() {
		return nil, nil
	}
	addr := geocode.Address{
		Street:     acct.Street,
		City:       acct.City,
		PostalCode: acct.PostalCode,
		Country:    acct.Country,
	}
	res, err := r.source.Get(ctx, strings.ToLower(addr.OneLine()), func(ctx context.Context) (geocode.Result, error) {
		return resilience.Call(ctx, r.breakers, "geocode", breakerOnly, func(ctx context.Context) (geocode.Result, error) {
			out, err := r.geocoder.Geocode(ctx, addr)
			if err != nil || out == nil {
				return geocode.Result{}, err
			}
			return *out, nil
		})
	})
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: geocode %q", addr.OneLine())
	}
	if !res.Matched {
		return nil, nil
	}
	km := HaversineKM(r.ref, NewPoint(res.Latitude, res.Longitude))
	return &km, nil
}
