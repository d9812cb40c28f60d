// Command generate produces a synthetic terminal log corpus and a matching
// reference error matrix for manual testing of the analyzer CLI.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
)

var knownErrors = []struct {
	Code        string
	Description string
	Category    string
}{
	{"E10A01", "Atasco de billetes en el validador", "Hardware"},
	{"E10B14", "Cassette de depósito lleno", "Hardware"},
	{"E20301", "Pérdida de comunicación con el host", "Comunicación"},
	{"E20C55", "Tiempo de espera agotado en transacción", "Comunicación"},
	{"E30F02", "Error de lectura de sensor de efectivo", "Hardware"},
	{"E41200", "Fallo de alimentación durante operación", "Energía"},
}

var denominations = []int{20, 50, 100, 200, 500, 1000}

func main() {
	var (
		outputDir = flag.String("output-dir", "generated", "Output directory for logs and matrix")
		files     = flag.Int("files", 120, "Number of log files to generate")
		errorRate = flag.Float64("error-rate", 0.2, "Fraction of files that are error logs")
		startDate = flag.String("start-date", "2024-03-01", "Start date (YYYY-MM-DD)")
		days      = flag.Int("days", 30, "Span of activity in days")
		seed      = flag.Int64("seed", 42, "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	rng := rand.New(rand.NewSource(*seed))
	logsDir := filepath.Join(*outputDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		log.Fatalf("Creating output directory: %v", err)
	}

	if err := writeMatrix(filepath.Join(*outputDir, "matrix.csv")); err != nil {
		log.Fatalf("Writing matrix: %v", err)
	}

	for i := 0; i < *files; i++ {
		ts := start.Add(time.Duration(rng.Intn(*days*24*60)) * time.Minute)
		var name, content string

		if rng.Float64() < *errorRate {
			name = fmt.Sprintf("TERMINAL_LOG_%03d.txt", i)
			content = errorLog(rng, ts)
		} else {
			kind := [3]string{"COLLECT", "DEPOSIT", "UNVERIFIED"}[rng.Intn(3)]
			name = fmt.Sprintf("%s_%03d.txt", kind, i)
			content = cashLog(rng, ts)
		}

		if err := os.WriteFile(filepath.Join(logsDir, name), []byte(content), 0o644); err != nil {
			log.Fatalf("Writing %s: %v", name, err)
		}
	}

	fmt.Printf("Generated %d log files and matrix.csv under %s\n", *files, *outputDir)
}

// writeMatrix emits a reference matrix CSV with the Spanish header row the
// loader looks for.
func writeMatrix(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"Matriz de errores - Terminales de efectivo"}); err != nil {
		return err
	}
	if err := w.Write([]string{"CODIGO DE ERROR", "DESCRIPCION DEL CODIGO", "CATEGORIA", "SUB CATEGORIA", "TIPO DE SOLUCION", "TIEMPO DE RECUPERACION (MIN)"}); err != nil {
		return err
	}

	for _, e := range knownErrors {
		row := []string{e.Code, e.Description, e.Category, "", "Remota", "15"}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

// cashLog builds a device ledger file whose last line carries the timestamp
// at field 4 and a denomination ledger from field 6 onwards.
func cashLog(rng *rand.Rand, ts time.Time) string {
	fields := []string{
		"01",
		"TRM-0482",
		"SESSION",
		fmt.Sprintf("%06d", rng.Intn(1000000)),
		ts.Format("2006-01-02 15:04:05"),
		"OK",
	}

	total := decimal.Zero
	for _, denom := range denominations {
		count := rng.Intn(25)
		fields = append(fields,
			fmt.Sprintf("%d", denom),
			"MXN",
			fmt.Sprintf("%d", count),
		)
		total = total.Add(decimal.NewFromInt(int64(denom * count)))
	}

	header := fmt.Sprintf("DEVICE LEDGER %s\nTOTAL %s\n", ts.Format("2006-01-02"), total.StringFixed(2))
	return header + join(fields) + "\n"
}

// errorLog builds a status file whose last line carries an error code in the
// status field, plus a second code in the free text about half the time.
func errorLog(rng *rand.Rand, ts time.Time) string {
	primary := knownErrors[rng.Intn(len(knownErrors))]

	body := fmt.Sprintf("Registro de eventos del terminal\nFecha: %s\n", ts.Format("2006-01-02 15:04:05"))
	if rng.Intn(2) == 0 {
		secondary := knownErrors[rng.Intn(len(knownErrors))]
		body += fmt.Sprintf("Advertencia previa: %s detectado a las %s\n", secondary.Code, ts.Add(-10*time.Minute).Format("15:04"))
	}

	fields := []string{
		"01",
		"TRM-0482",
		"EVENT",
		fmt.Sprintf("%06d", rng.Intn(1000000)),
		ts.Format("2006-01-02 15:04:05"),
		primary.Code,
	}

	return body + join(fields) + "\n"
}

func join(fields []string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += "," + f
	}
	return out
}
