package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Tesseract reads images, not PDFs, so scanned pages are first rasterized
// to PNGs with pdftoppm (Poppler) or magick (ImageMagick), then each page
// image goes through tesseract.

// tesseractBin holds the resolved path to the tesseract binary. Set by
// DetectTesseract. May be just "tesseract" when found on PATH, or a full
// path like `C:\Program Files\Tesseract-OCR\tesseract.exe`.
var tesseractBin string

// DetectTesseract checks whether a usable tesseract install is available.
// It checks PATH first, then common Windows install directories, and only
// accepts an install whose tessdata contains eng.traineddata.
func DetectTesseract() bool {
	if path, err := exec.LookPath("tesseract"); err == nil {
		tessdataDir := filepath.Join(filepath.Dir(path), "tessdata")
		if _, statErr := os.Stat(filepath.Join(tessdataDir, "eng.traineddata")); statErr == nil {
			tesseractBin = path
			log.Printf("Tesseract found on PATH: %s", path)
			return true
		}
		log.Printf("Tesseract on PATH at %s but eng.traineddata missing in %s, checking other locations", path, tessdataDir)
	}

	if runtime.GOOS == "windows" {
		candidates := []string{
			`C:\Program Files\Tesseract-OCR\tesseract.exe`,
			`C:\Program Files\Tesseract\tesseract.exe`,
			`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
			`C:\Program Files (x86)\Tesseract\tesseract.exe`,
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Tesseract-OCR", "tesseract.exe"),
			filepath.Join(os.Getenv("LOCALAPPDATA"), "Programs", "Tesseract-OCR", "tesseract.exe"),
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err != nil {
				continue
			}
			if err := exec.Command(c, "--version").Run(); err != nil {
				continue
			}
			tessdataDir := filepath.Join(filepath.Dir(c), "tessdata")
			if _, err := os.Stat(filepath.Join(tessdataDir, "eng.traineddata")); err != nil {
				log.Printf("Tesseract at %s: skipping, eng.traineddata not found in %s", c, tessdataDir)
				continue
			}
			tesseractBin = c
			log.Printf("Tesseract found at: %s", c)
			return true
		}
	}

	log.Printf("Tesseract not found (install tesseract for scanned PDF support)")
	return false
}

// DetectPdftoppm checks whether pdftoppm (Poppler) or magick (ImageMagick)
// is available to rasterize PDF pages for tesseract.
func DetectPdftoppm() bool {
	if _, err := exec.LookPath("pdftoppm"); err == nil {
		return true
	}
	if _, err := exec.LookPath("magick"); err == nil {
		return true
	}
	return false
}

// tesseractSem caps concurrent tesseract processes across all documents.
// Too many instances at once lead to CPU thrashing and OOM kills.
var tesseractSem = make(chan struct{}, runtime.NumCPU())

// ocrPDF rasterizes a PDF and runs tesseract over each page, returning
// the recognized text in page order. An empty string with a nil error
// means the pipeline ran but recognized nothing usable.
func ocrPDF(ctx context.Context, pdfPath, fileName string, cfg *Config) (string, error) {
	bin := tesseractBin
	if bin == "" {
		return "", fmt.Errorf("tesseract binary not found")
	}

	// TESSDATA_PREFIX must point at the directory holding eng.traineddata.
	tessDataPrefix := filepath.Join(filepath.Dir(bin), "tessdata")

	tmpDir, err := os.MkdirTemp("", "doclens-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imageFiles, err := rasterizePDF(pdfPath, tmpDir, fileName)
	if err != nil {
		return "", err
	}

	total := len(imageFiles)
	pages := make([]string, total)
	var done int32
	var firstErrLogged sync.Once

	var wg sync.WaitGroup
	for i, imgFile := range imageFiles {
		wg.Add(1)
		go func(idx int, file string) {
			defer wg.Done()

			tesseractSem <- struct{}{}
			defer func() { <-tesseractSem }()

			if ctx.Err() != nil {
				return
			}

			cmd := exec.CommandContext(ctx, bin, file, "stdout", "-l", "eng", "--psm", "6")
			cmd.Env = append(os.Environ(),
				"TESSDATA_PREFIX="+tessDataPrefix,
				"OMP_THREAD_LIMIT=1", // keep per-process threading flat; the semaphore handles parallelism
			)
			var out, stderr bytes.Buffer
			cmd.Stdout = &out
			cmd.Stderr = &stderr

			if err := cmd.Run(); err != nil {
				firstErrLogged.Do(func() {
					log.Printf("Tesseract failed on page %d of %s: %v | stderr: %s",
						idx+1, fileName, err, strings.TrimSpace(stderr.String()))
				})
				return
			}

			text := strings.TrimSpace(out.String())
			if len(text) > 20 { // skip near-empty pages
				pages[idx] = text
			}
			cfg.progress(int(atomic.AddInt32(&done, 1)), total)
		}(i, imgFile)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sb strings.Builder
	recognized := 0
	for _, p := range pages {
		if p == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p)
		recognized++
	}
	if recognized > 0 {
		log.Printf("OCR recognized text on %d of %d pages of %s", recognized, total, fileName)
	}
	return sb.String(), nil
}

// rasterizePDF converts each PDF page to a PNG in tmpDir, trying pdftoppm
// first and ImageMagick as a fallback, and returns the images in page order.
func rasterizePDF(pdfPath, tmpDir, fileName string) ([]string, error) {
	imagePrefix := filepath.Join(tmpDir, "page")
	converted := false
	var convertErr error

	if pdftoppmPath, lookErr := exec.LookPath("pdftoppm"); lookErr == nil {
		cmd := exec.Command(pdftoppmPath, "-png", "-r", "200", pdfPath, imagePrefix)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err == nil {
			converted = true
			log.Printf("Rasterized %s with pdftoppm", fileName)
		} else {
			convertErr = fmt.Errorf("pdftoppm: %v (stderr: %s)", err, stderr.String())
		}
	}

	if !converted {
		if magickPath, lookErr := exec.LookPath("magick"); lookErr == nil {
			cmd := exec.Command(magickPath, "convert", "-density", "200", pdfPath, imagePrefix+"-%03d.png")
			var stderr bytes.Buffer
			cmd.Stderr = &stderr
			if err := cmd.Run(); err == nil {
				converted = true
				log.Printf("Rasterized %s with ImageMagick", fileName)
			} else {
				convertErr = fmt.Errorf("magick: %v (stderr: %s)", err, stderr.String())
			}
		}
	}

	if !converted {
		if convertErr != nil {
			return nil, fmt.Errorf("cannot rasterize PDF: %v", convertErr)
		}
		return nil, fmt.Errorf("cannot rasterize PDF: install Poppler (pdftoppm) or ImageMagick (magick)")
	}

	imageFiles, err := filepath.Glob(imagePrefix + "*")
	if err != nil || len(imageFiles) == 0 {
		return nil, fmt.Errorf("no page images produced from PDF")
	}
	sortImageFiles(imageFiles)
	return imageFiles, nil
}

var pageNumRe = regexp.MustCompile(`(\d+)\.png$`)

// sortImageFiles orders rasterized pages by the number embedded in the
// filename, so page 10 sorts after page 9 rather than after page 1.
func sortImageFiles(files []string) {
	sort.Slice(files, func(i, j int) bool {
		return pageNumber(files[i]) < pageNumber(files[j])
	})
}

func pageNumber(path string) int {
	m := pageNumRe.FindStringSubmatch(filepath.Base(path))
	if len(m) >= 2 {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}
