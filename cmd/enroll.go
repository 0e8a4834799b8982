package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/enroll"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Compute a reference embedding from local photos",
	Long: `Run the enrollment pipeline on local photo files against the embedding server.

With all three photos the embeddings are validated and averaged. With only the
front photo the front embedding is used and the result is marked as fallback.

Examples:
  # Full enrollment
  face-enroll enroll --front front.jpg --left left.jpg --right right.jpg

  # Store the vector on student 42
  face-enroll enroll --front front.jpg --left left.jpg --right right.jpg --id 42

  # JSON output including the vector
  face-enroll enroll --front front.jpg --json`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("front", "", "Front photo file (required)")
	enrollCmd.Flags().String("left", "", "Left profile photo file")
	enrollCmd.Flags().String("right", "", "Right profile photo file")
	enrollCmd.Flags().Int64("id", 0, "Store the vector on this identity")
	enrollCmd.Flags().Bool("json", false, "Output as JSON")
}

// EnrollOutput is the result of the enroll command
type EnrollOutput struct {
	Success    bool      `json:"success"`
	IsFallback bool      `json:"isFallback,omitempty"`
	VectorSize int       `json:"vector_size,omitempty"`
	Vector     []float32 `json:"vector,omitempty"`
	StoredID   int64     `json:"stored_id,omitempty"`
	ErrorCode  int       `json:"error_code,omitempty"`
	PhotoIndex int       `json:"photo_index,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// readSubmission reads each non-empty path and base64-encodes it into its slot.
func readSubmission(paths map[string]string) (enroll.Submission, error) {
	sub := enroll.Submission{}
	for slot, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s photo: %w", slot, err)
		}
		sub[slot] = base64.StdEncoding.EncodeToString(data)
	}
	return sub, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")
	id := mustGetInt64(cmd, "id")

	sub, err := readSubmission(map[string]string{
		enroll.SlotFront: mustGetString(cmd, "front"),
		enroll.SlotLeft:  mustGetString(cmd, "left"),
		enroll.SlotRight: mustGetString(cmd, "right"),
	})
	if err != nil {
		return err
	}

	cfg := config.Load()
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	result, err := pipeline.Enroll(ctx, sub)
	if err != nil {
		var failure *enroll.Failure
		if errors.As(err, &failure) {
			out := EnrollOutput{ErrorCode: failure.Code, PhotoIndex: failure.SlotIndex, Message: failure.Message}
			if printErr := printEnrollOutput(out, jsonOutput); printErr != nil {
				return printErr
			}
			return &reportedError{err: err}
		}
		return fmt.Errorf("enrollment failed: %w", err)
	}

	out := EnrollOutput{
		Success:    true,
		IsFallback: result.IsFallback,
		VectorSize: len(result.Vector),
	}
	if jsonOutput {
		out.Vector = result.Vector
	}

	if id != 0 {
		if err := storeVector(ctx, cfg, id, result.Vector); err != nil {
			return err
		}
		out.StoredID = id
	}

	return printEnrollOutput(out, jsonOutput)
}

func storeVector(ctx context.Context, cfg *config.Config, id int64, vector []float32) error {
	store, closer, err := openIdentityStore(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("--id needs DATABASE_URL or MYSQL_DSN to be set")
	}
	defer closer.Close()

	n, err := store.UpdateVector(ctx, id, vector)
	if err != nil {
		return fmt.Errorf("storing vector: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("identity %d not found", id)
	}
	return nil
}

func printEnrollOutput(out EnrollOutput, jsonOutput bool) error {
	if jsonOutput {
		return outputJSON(out)
	}

	if !out.Success {
		if out.PhotoIndex > 0 {
			fmt.Printf("Rejected photo %d (code %d): %s\n", out.PhotoIndex, out.ErrorCode, out.Message)
		} else {
			fmt.Printf("Rejected (code %d): %s\n", out.ErrorCode, out.Message)
		}
		return nil
	}

	mode := "full"
	if out.IsFallback {
		mode = "front only (fallback)"
	}
	fmt.Printf("Enrolled: %d-dimensional vector, %s\n", out.VectorSize, mode)
	if out.StoredID != 0 {
		fmt.Printf("Stored on identity %d\n", out.StoredID)
	}
	return nil
}
