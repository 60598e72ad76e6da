package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/ffbridge/internal/config"
	"github.com/ayusman/ffbridge/internal/curl"
	"github.com/ayusman/ffbridge/internal/ffb"
	"github.com/ayusman/ffbridge/internal/skeleton"
)

// errNotSent is returned when a record could not be delivered.
var errNotSent = errors.New("record not sent")

func (a *app) newSendCmd() *cobra.Command {
	var (
		curlFlag string
		poseFile string
		preset   string
	)

	cmd := &cobra.Command{
		Use:   "send <left|right>",
		Short: "Send one curl record to a hand",
		Long: `Connects to the hand's endpoint, sends a single record and disconnects.
The record comes from --curl (five comma separated values thumb to pinky),
from a pose file estimated against the configured references (--pose), or
from a built-in pose (--preset open|half|fist).`,
		Example: `  ffbridge send right --curl 0,1000,1000,500,0
  ffbridge send left --pose grip.json
  ffbridge send left --preset fist`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := skeleton.ParseSide(args[0])
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			var report curl.Report
			switch {
			case curlFlag != "":
				report, err = parseCurl(curlFlag)
			case poseFile != "":
				report, err = estimateFile(cfg, side, poseFile)
			case preset != "":
				report, err = estimatePreset(side, preset)
			default:
				err = errors.New("one of --curl, --pose or --preset is required")
			}
			if err != nil {
				return err
			}

			if err := sendOnce(cmd.Context(), cfg, side, report); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: sent %s\n", side, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&curlFlag, "curl", "", "curl values thumb,index,middle,ring,pinky in [0,1000]")
	cmd.Flags().StringVar(&poseFile, "pose", "", "JSON file with a pose or a list of rotations")
	cmd.Flags().StringVar(&preset, "preset", "", "built-in pose: open, half or fist")
	cmd.MarkFlagsMutuallyExclusive("curl", "pose", "preset")
	return cmd
}

func (a *app) newRelaxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relax [left|right]",
		Short: "Send a relaxed record to one or both hands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sides := skeleton.Sides()
			targets := sides[:]
			if len(args) == 1 {
				side, err := skeleton.ParseSide(args[0])
				if err != nil {
					return err
				}
				targets = []skeleton.Side{side}
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			var errs []error
			for _, side := range targets {
				if err := sendOnce(cmd.Context(), cfg, side, curl.Relaxed); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: relaxed\n", side)
			}
			return errors.Join(errs...)
		},
	}
}

// sendOnce connects to side's endpoint, writes report and disconnects.
func sendOnce(ctx context.Context, cfg *config.Config, side skeleton.Side, report curl.Report) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := zap.L()
	ch := ffb.NewChannel(side, newTransport(cfg, side, logger), logger)
	defer ch.Close()

	if err := ch.Connect(ctx); err != nil {
		return err
	}
	if !ch.SetCurl(report) {
		return fmt.Errorf("%s: %w", side, errNotSent)
	}
	return nil
}

// parseCurl parses "t,i,m,r,p". Values outside [0,1000] are rejected.
func parseCurl(s string) (curl.Report, error) {
	parts := strings.Split(s, ",")
	if len(parts) != skeleton.FingerCount {
		return curl.Report{}, fmt.Errorf("expected %d curl values, got %d", skeleton.FingerCount, len(parts))
	}

	var r curl.Report
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return curl.Report{}, fmt.Errorf("invalid %s curl %q: %w", skeleton.Finger(i), p, err)
		}
		r[i] = int16(v)
	}
	if err := r.Validate(); err != nil {
		return curl.Report{}, err
	}
	return r, nil
}

// readRotations reads a pose file for side. The file holds either a full
// {"left": [...], "right": [...]} pose or a bare list of rotations.
func readRotations(path string, side skeleton.Side) (skeleton.JointRotationSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pose file: %w", err)
	}

	var set skeleton.JointRotationSet
	if err := json.Unmarshal(data, &set); err == nil {
		return set, nil
	}

	var pose skeleton.Pose
	if err := json.Unmarshal(data, &pose); err != nil {
		return nil, fmt.Errorf("failed to parse pose file: %w", err)
	}
	return pose.Hand(side), nil
}

// estimateFile estimates the pose in path against the configured references.
func estimateFile(cfg *config.Config, side skeleton.Side, path string) (curl.Report, error) {
	live, err := readRotations(path, side)
	if err != nil {
		return curl.Report{}, err
	}
	est, err := newEstimator(cfg)
	if err != nil {
		return curl.Report{}, err
	}
	return est.Estimate(side, live)
}

// estimatePreset estimates a built-in pose against the built-in references.
func estimatePreset(side skeleton.Side, name string) (curl.Report, error) {
	var pose skeleton.Pose
	switch strings.ToLower(name) {
	case "open":
		pose = skeleton.OpenHandPose()
	case "half":
		pose = skeleton.PartialPose(0.5)
	case "fist":
		pose = skeleton.FistPose()
	default:
		return curl.Report{}, fmt.Errorf("unknown preset %q", name)
	}
	refs := curl.BuiltinReferences()
	return curl.Estimate(pose.Hand(side), refs.Open.Hand(side), refs.Closed.Hand(side))
}

// newEstimator builds an estimator from the configured reference source.
// The pose store is opened only when it is the source.
func newEstimator(cfg *config.Config) (*curl.Estimator, error) {
	if cfg.References.Source != config.ReferencesStore {
		refs, err := loadReferences(cfg, nil)
		if err != nil {
			return nil, err
		}
		return curl.NewEstimator(refs)
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	refs, err := loadReferences(cfg, st)
	if err != nil {
		return nil, err
	}
	return curl.NewEstimator(refs)
}
