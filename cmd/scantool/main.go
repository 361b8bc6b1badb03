// Command scantool inspects range-scan archives: listing recording
// sessions, dumping individual scans as text and rendering them as scatter
// plots.
//
// Usage:
//
//	scantool -archive scans.db sessions
//	scantool -archive scans.db info <session-id>
//	scantool -archive scans.db dump <scan-id>
//	scantool -archive scans.db plot <scan-id> [-out scan.png]
//	scantool version
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/rangekit/internal/archive"
	"github.com/banshee-data/rangekit/internal/obs"
	"github.com/banshee-data/rangekit/internal/version"
)

var archivePath = flag.String("archive", "scans.db", "Path to the scan archive file")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: scantool [-archive path] <sessions|info|dump|plot|version> [args]\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	if args[0] == "version" {
		fmt.Printf("scantool %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	a, err := archive.Open(*archivePath)
	if err != nil {
		log.Fatalf("opening archive: %v", err)
	}
	defer a.Close()

	switch args[0] {
	case "sessions":
		err = cmdSessions(a)
	case "info":
		if len(args) < 2 {
			log.Fatal("info requires a session ID")
		}
		err = cmdInfo(a, args[1])
	case "dump":
		err = cmdDump(a, mustScanID(args))
	case "plot":
		out := "scan.png"
		fs := flag.NewFlagSet("plot", flag.ExitOnError)
		fs.StringVar(&out, "out", out, "Output image path")
		if len(args) < 2 {
			log.Fatal("plot requires a scan ID")
		}
		if err := fs.Parse(args[2:]); err != nil {
			log.Fatal(err)
		}
		err = cmdPlot(a, mustScanID(args), out)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func mustScanID(args []string) int64 {
	if len(args) < 2 {
		log.Fatalf("%s requires a scan ID", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		log.Fatalf("invalid scan ID %q: %v", args[1], err)
	}
	return id
}

func cmdSessions(a *archive.Archive) error {
	sessions, err := a.Sessions()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  sensor=%q  started=%s  scans=%d\n",
			s.SessionID, s.SensorLabel, s.StartedAt.Format("2006-01-02 15:04:05"), s.ScanCount)
	}
	return nil
}

func cmdInfo(a *archive.Archive, sessionID string) error {
	scans, err := a.Scans(sessionID)
	if err != nil {
		return err
	}
	fmt.Printf("session %s: %d scans\n", sessionID, len(scans))
	for _, ss := range scans {
		captured := "(unset)"
		if !ss.CapturedAt.IsZero() {
			captured = ss.CapturedAt.Format("2006-01-02 15:04:05.000")
		}
		fmt.Printf("  scan %d  v%d  rays=%d  captured=%s\n",
			ss.ID, ss.FormatVersion, ss.RayCount, captured)
	}
	return nil
}

func cmdDump(a *archive.Archive, id int64) error {
	ss, err := a.Scan(id)
	if err != nil {
		return err
	}
	scan, err := ss.Decode()
	if err != nil {
		return err
	}
	fmt.Printf("scan %d (format version %d)\n", ss.ID, ss.FormatVersion)
	fmt.Print(scan.DescriptionText())
	return nil
}

func cmdPlot(a *archive.Archive, id int64, out string) error {
	ss, err := a.Scan(id)
	if err != nil {
		return err
	}
	scan, err := ss.Decode()
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Scan %d (%s)", ss.ID, scan.SensorLabel)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	scatter, err := plotter.NewScatter(scanXYs(scan))
	if err != nil {
		return fmt.Errorf("building scatter: %w", err)
	}
	p.Add(scatter, plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 6*vg.Inch, out); err != nil {
		return fmt.Errorf("saving plot to %s: %w", out, err)
	}
	fmt.Printf("wrote %s (%d valid returns)\n", out, scan.CountValid())
	return nil
}

// scanXYs projects the scan's valid rays into sensor-frame XY coordinates.
func scanXYs(scan *obs.RangeScan2D) plotter.XYs {
	ang, delta := scan.RayAngles()
	xys := make(plotter.XYs, 0, len(scan.Ranges))
	for i, d := range scan.Ranges {
		a := ang
		ang += delta
		if i < len(scan.Valid) && !scan.Valid[i] {
			continue
		}
		xys = append(xys, plotter.XY{
			X: float64(d) * math.Cos(a),
			Y: float64(d) * math.Sin(a),
		})
	}
	return xys
}
