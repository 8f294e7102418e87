package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"facility-route-service/internal/adapters/osrm"
	"facility-route-service/internal/adapters/overpass"
	"facility-route-service/internal/adapters/render"
	"facility-route-service/internal/config"
	"facility-route-service/internal/domain"
	"facility-route-service/internal/platform/obs"
	"facility-route-service/internal/ports"
	"facility-route-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	userAgent   = "medfind/1.0"
	arrivalZoom = 15
)

var (
	cfg *config.Config

	searchAt   string
	typesFlag  string
	fromFlag   string
	toFlag     string
	formatFlag string
	tickFlag   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "medfind",
	Short: "Find nearby medical facilities and animate the route to them",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load("medfind")
		if err != nil {
			return err
		}
		obs.InitLoggerTo(os.Stderr, cfg.Log.Level, "text")
		return nil
	},
	SilenceUsage: true,
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List facilities around a coordinate, widening the radius until something is found",
	RunE:  runSearch,
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Print a driving route between two coordinates",
	RunE:  runRoute,
}

var animateCmd = &cobra.Command{
	Use:   "animate",
	Short: "Play the route drawing animation frame by frame",
	RunE:  runAnimate,
}

func init() {
	searchCmd.Flags().StringVar(&searchAt, "at", "", "Search center as lat,lon")
	searchCmd.Flags().StringVar(&typesFlag, "types", "", "Comma separated facility types (pharmacy, hospital, clinic); empty means all")
	_ = searchCmd.MarkFlagRequired("at")

	for _, c := range []*cobra.Command{routeCmd, animateCmd} {
		c.Flags().StringVar(&fromFlag, "from", "", "Origin as lat,lon")
		c.Flags().StringVar(&toFlag, "to", "", "Destination as lat,lon")
		_ = c.MarkFlagRequired("from")
		_ = c.MarkFlagRequired("to")
	}
	animateCmd.Flags().DurationVar(&tickFlag, "tick", 0, "Frame interval (defaults to animation.tick_millis)")
	animateCmd.Flags().StringVar(&formatFlag, "format", "text", "Output format: text or geojson")

	rootCmd.AddCommand(searchCmd, routeCmd, animateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	center, err := parseCoordinate(searchAt)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}
	types, err := domain.ParseFacilityTypes(typesFlag)
	if err != nil {
		return fmt.Errorf("--types: %w", err)
	}

	source := overpass.NewClient(overpass.Options{
		BaseURL:             cfg.Overpass.URL,
		MaxRadiusMeters:     cfg.Overpass.MaxRadiusMeters,
		QueryTimeoutSeconds: cfg.Overpass.QueryTimeout,
		UserAgent:           userAgent,
		HTTPClient:          &http.Client{Timeout: time.Duration(cfg.Overpass.ClientTimeout) * time.Second},
	})
	policy := services.SearchPolicy{
		InitialRadiusMeters: cfg.Search.InitialRadiusMeters,
		MaxAttempts:         cfg.Search.MaxAttempts,
		RadiusMultiplier:    cfg.Search.RadiusMultiplier,
	}

	res, err := services.NewFacilityFinder(services.NewRadiusSearch(source), policy).Find(ctx, nil, center, types)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d result(s) after %d attempt(s), radius %.0f m\n", len(res.Facilities), res.Attempts, res.RadiusMeters)
	backend := render.NewTextBackend(cmd.OutOrStdout())
	if err := backend.RenderMarkers(ctx, res.Facilities); err != nil {
		return err
	}
	if res.Empty() {
		return nil
	}
	return backend.FlyTo(ctx, res.Facilities[0].Location, arrivalZoom)
}

func planFromFlags(ctx context.Context) (domain.RouteRequest, domain.RoutePlan, error) {
	origin, err := parseCoordinate(fromFlag)
	if err != nil {
		return domain.RouteRequest{}, domain.RoutePlan{}, fmt.Errorf("--from: %w", err)
	}
	destination, err := parseCoordinate(toFlag)
	if err != nil {
		return domain.RouteRequest{}, domain.RoutePlan{}, fmt.Errorf("--to: %w", err)
	}

	provider := osrm.NewClient(osrm.Options{
		BaseURL:    cfg.OSRM.URL,
		Profile:    cfg.OSRM.Profile,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.OSRM.ClientTimeout) * time.Second},
	})

	req := domain.RouteRequest{Origin: origin, Destination: destination}
	plan, err := services.NewRoutePlanner(provider, nil).PlanRoute(ctx, req)
	return req, plan, err
}

func runRoute(cmd *cobra.Command, args []string) error {
	_, plan, err := planFromFlags(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "distance: %.1f km\n", plan.DistanceMeters/1000)
	fmt.Fprintf(out, "duration: %s\n", (time.Duration(plan.DurationSeconds) * time.Second).Round(time.Second))
	fmt.Fprintf(out, "geometry: %d points\n", len(plan.Geometry))
	return nil
}

func runAnimate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req, plan, err := planFromFlags(ctx)
	if err != nil {
		return err
	}

	bounds := services.DurationBounds{Min: cfg.Animation.Min(), Max: cfg.Animation.Max()}
	animator, err := services.NewPathAnimator(plan.Geometry, services.SuggestedDuration(plan), bounds)
	if err != nil {
		return err
	}

	var backend ports.MapBackend
	switch strings.ToLower(formatFlag) {
	case "text":
		backend = render.NewTextBackend(cmd.OutOrStdout())
	case "geojson":
		backend = render.NewGeoJSONBackend(cmd.OutOrStdout())
	default:
		return fmt.Errorf("--format: unknown format %q", formatFlag)
	}

	tick := tickFlag
	if tick <= 0 {
		tick = cfg.Animation.Tick()
	}

	if err := services.PlayAnimation(ctx, animator, backend, tick); err != nil {
		return err
	}
	return backend.FlyTo(ctx, req.Destination, arrivalZoom)
}

// parseCoordinate reads "lat,lon".
func parseCoordinate(s string) (domain.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return domain.Coordinate{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("longitude: %w", err)
	}
	c := domain.Coordinate{Lat: lat, Lon: lon}
	return c, c.Validate()
}
