package obs

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/rangekit/internal/geom"
	"github.com/banshee-data/rangekit/internal/obsio"
)

// CurrentScanVersion is the only format version the encoder ever emits.
// Decoding supports every version from 0 up to and including it. The tag
// itself is not part of the record's bytes: the surrounding container (the
// archive's format_version column, a log file's record header, ...) stores
// it and hands it back at decode time.
const CurrentScanVersion = 7

var (
	// ErrUnknownVersion is returned when a decode is asked for a format
	// version this build does not know. The stream position is undefined
	// afterwards; the receiving record is left untouched.
	ErrUnknownVersion = errors.New("obs: unknown range scan format version")

	// ErrSequenceMismatch is returned by the encoder when the parallel
	// sequences disagree in length. It indicates a programming error in
	// whatever mutated the record, not a data problem.
	ErrSequenceMismatch = errors.New("obs: parallel sequences differ in length")
)

// Decode guards against corrupt or misaligned streams: a length prefix
// beyond these bounds is treated as corruption rather than allocated.
const (
	maxRayCount    = 1 << 20
	maxLabelLen    = 1 << 16
	maxCovarianceN = 64
)

// Record is a versioned, binary-serializable observation record.
// EncodeTo always writes the layout identified by Version; DecodeFrom must
// accept every version tag the record family ever shipped.
type Record interface {
	Version() uint8
	EncodeTo(w *obsio.Writer) error
	DecodeFrom(r *obsio.Reader, version uint8) error
}

// Marshal encodes rec at its current format version and returns the encoded
// bytes together with the version tag the container must store alongside
// them.
func Marshal(rec Record) ([]byte, uint8, error) {
	var buf bytes.Buffer
	if err := rec.EncodeTo(obsio.NewWriter(&buf)); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rec.Version(), nil
}

// Unmarshal decodes data, written at the given format version, into rec.
func Unmarshal(data []byte, version uint8, rec Record) error {
	return rec.DecodeFrom(obsio.NewReader(bytes.NewReader(data)), version)
}

// Version returns the format version EncodeTo targets.
func (s *RangeScan2D) Version() uint8 { return CurrentScanVersion }

// EncodeTo writes the scan in the current (version 7) layout. It never
// mutates the record. Encoding fails with ErrSequenceMismatch if the
// parallel sequences disagree in length.
func (s *RangeScan2D) EncodeTo(w *obsio.Writer) error {
	n := len(s.Ranges)
	if len(s.Valid) != n {
		return fmt.Errorf("%w: %d ranges, %d validity flags", ErrSequenceMismatch, n, len(s.Valid))
	}
	if len(s.Intensity) != 0 && len(s.Intensity) != n {
		return fmt.Errorf("%w: %d ranges, %d intensity samples", ErrSequenceMismatch, n, len(s.Intensity))
	}

	if err := w.WriteFloat32(s.Aperture); err != nil {
		return err
	}
	if err := w.WriteBool(s.RightToLeft); err != nil {
		return err
	}
	if err := w.WriteFloat32(s.MaxRange); err != nil {
		return err
	}
	if err := encodePose(w, s.SensorPose); err != nil {
		return err
	}
	if err := w.WriteUint32(uint32(n)); err != nil {
		return err
	}
	if err := w.WriteFloat32Slice(s.Ranges); err != nil {
		return err
	}
	if err := w.WriteBoolSlice(s.Valid); err != nil {
		return err
	}
	if err := w.WriteFloat32(s.StdError); err != nil {
		return err
	}
	if err := w.WriteInt64(timestampWire(s.Timestamp)); err != nil {
		return err
	}
	if err := w.WriteFloat32(s.BeamAperture); err != nil {
		return err
	}
	if err := w.WriteString(s.SensorLabel); err != nil {
		return err
	}
	if err := w.WriteFloat64(s.DeltaPitch); err != nil {
		return err
	}
	hasIntensity := len(s.Intensity) > 0
	if err := w.WriteBool(hasIntensity); err != nil {
		return err
	}
	if hasIntensity {
		if err := w.WriteFloat32Slice(s.Intensity); err != nil {
			return err
		}
	}
	return nil
}

// DecodeFrom reads a scan written at the given format version. The decode is
// all-or-nothing: fields are assembled in a fresh record and swapped into s
// only on full success, so a failed decode leaves s exactly as it was. Any
// cached derived state is cleared on success.
func (s *RangeScan2D) DecodeFrom(r *obsio.Reader, version uint8) error {
	var tmp RangeScan2D
	var err error
	switch {
	case version <= 3:
		err = tmp.decodeLegacy(r, version)
	case version <= CurrentScanVersion:
		err = tmp.decodeModern(r, version)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	if err != nil {
		return fmt.Errorf("obs: decoding range scan v%d: %w", version, err)
	}
	*s = tmp
	s.invalidateCachedMap()
	return nil
}

// decodeLegacy reads the version 0-3 layouts. These predate the validity
// flags (v0), the uncertainty estimate (v0-1) and the capture timestamp
// (v0-2); absent fields get their documented defaults. All four versions
// carry the sensor-pose covariance that was dropped in v6.
func (s *RangeScan2D) decodeLegacy(r *obsio.Reader, version uint8) error {
	var err error
	if s.Aperture, err = r.ReadFloat32(); err != nil {
		return err
	}
	if s.RightToLeft, err = r.ReadBool(); err != nil {
		return err
	}
	if s.MaxRange, err = r.ReadFloat32(); err != nil {
		return err
	}
	if s.SensorPose, err = decodePose(r); err != nil {
		return err
	}
	if err = discardPoseCovariance(r); err != nil {
		return err
	}
	n, err := readRayCount(r)
	if err != nil {
		return err
	}
	if s.Ranges, err = r.ReadFloat32Slice(n); err != nil {
		return err
	}

	if version >= 1 {
		if s.Valid, err = r.ReadBoolSlice(n); err != nil {
			return err
		}
	} else {
		// v0 had no validity flags: a ray counts as valid when its
		// measurement is strictly below the maximum sensing range.
		s.Valid = make([]bool, n)
		for i, d := range s.Ranges {
			s.Valid[i] = d < s.MaxRange
		}
	}

	if version >= 2 {
		if s.StdError, err = r.ReadFloat32(); err != nil {
			return err
		}
	} else {
		s.StdError = DefaultStdError
	}

	if version >= 3 {
		ts, err := r.ReadInt64()
		if err != nil {
			return err
		}
		s.Timestamp = timestampFromWire(ts)
	}

	// Defaults for fields introduced after this version group.
	s.BeamAperture = defaultBeamAperture
	s.DeltaPitch = 0
	s.SensorLabel = ""
	return nil
}

// decodeModern reads the version 4-7 layouts.
func (s *RangeScan2D) decodeModern(r *obsio.Reader, version uint8) error {
	var err error
	if s.Aperture, err = r.ReadFloat32(); err != nil {
		return err
	}
	if s.RightToLeft, err = r.ReadBool(); err != nil {
		return err
	}
	if s.MaxRange, err = r.ReadFloat32(); err != nil {
		return err
	}
	if s.SensorPose, err = decodePose(r); err != nil {
		return err
	}
	if version < 6 {
		// The sensor-pose covariance was removed from the record in v6 but
		// remains in older streams and must be consumed to stay aligned.
		if err = discardPoseCovariance(r); err != nil {
			return err
		}
	}
	n, err := readRayCount(r)
	if err != nil {
		return err
	}
	if s.Ranges, err = r.ReadFloat32Slice(n); err != nil {
		return err
	}
	if s.Valid, err = r.ReadBoolSlice(n); err != nil {
		return err
	}
	if s.StdError, err = r.ReadFloat32(); err != nil {
		return err
	}
	ts, err := r.ReadInt64()
	if err != nil {
		return err
	}
	s.Timestamp = timestampFromWire(ts)
	if s.BeamAperture, err = r.ReadFloat32(); err != nil {
		return err
	}

	if version >= 5 {
		if s.SensorLabel, err = r.ReadString(maxLabelLen); err != nil {
			return err
		}
		if s.DeltaPitch, err = r.ReadFloat64(); err != nil {
			return err
		}
	} else {
		s.SensorLabel = ""
		s.DeltaPitch = 0
	}

	if version >= 7 {
		hasIntensity, err := r.ReadBool()
		if err != nil {
			return err
		}
		if hasIntensity && n > 0 {
			if s.Intensity, err = r.ReadFloat32Slice(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// discardPoseCovariance consumes the sensor-pose covariance matrix carried
// by versions 0-5: rows and cols as uint32 followed by rows*cols float32
// entries. The field was dropped from the live record in v6, but the layout
// is positional, so its exact historical size must stay described here to
// keep everything after it aligned.
func discardPoseCovariance(r *obsio.Reader) error {
	rows, err := r.ReadUint32()
	if err != nil {
		return err
	}
	cols, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if rows > maxCovarianceN || cols > maxCovarianceN {
		return &obsio.LengthError{Got: int(rows) * int(cols), Max: maxCovarianceN * maxCovarianceN}
	}
	return r.Discard(int64(rows) * int64(cols) * 4)
}

// readRayCount reads the shared length prefix of the parallel sequences.
func readRayCount(r *obsio.Reader) (int, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	if n > maxRayCount {
		return 0, &obsio.LengthError{Got: int(n), Max: maxRayCount}
	}
	return int(n), nil
}

// encodePose writes the sensor pose as six float64s: x, y, z, yaw, pitch,
// roll. This sub-record layout has been frozen since version 0.
func encodePose(w *obsio.Writer, p geom.Pose3D) error {
	for _, v := range [6]float64{p.X, p.Y, p.Z, p.Yaw, p.Pitch, p.Roll} {
		if err := w.WriteFloat64(v); err != nil {
			return err
		}
	}
	return nil
}

func decodePose(r *obsio.Reader) (geom.Pose3D, error) {
	var vals [6]float64
	for i := range vals {
		v, err := r.ReadFloat64()
		if err != nil {
			return geom.Pose3D{}, err
		}
		vals[i] = v
	}
	return geom.Pose3D{
		X: vals[0], Y: vals[1], Z: vals[2],
		Yaw: vals[3], Pitch: vals[4], Roll: vals[5],
	}, nil
}

// timestampWire maps a time.Time to its wire form: unix nanoseconds, with 0
// reserved for "unset".
func timestampWire(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func timestampFromWire(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
