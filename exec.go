package tropic

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/tropic/utils"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

var (
	// validExtensions lists the supported source images.
	validExtensions = []string{".jpg", ".png", ".jpeg", ".bmp", ".gif"}
	// outputExtensions lists the formats the rendered field can be encoded to.
	outputExtensions = []string{".jpg", ".png", ".jpeg", ".bmp"}
)

// Ops holds the source and destination of a processing run.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about the processed image.
type result struct {
	path string
	err  error
}

// Execute runs the processor over the source, which can be a single image,
// an image URL, a directory of images or a pipe.
func (p *Processor) Execute(op *Ops) error {
	defaultMsg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ TROPIC", utils.StatusMessage),
		utils.DecorateText(fmt.Sprintf("⇢ computing the %s field...", p.Mode), utils.DefaultMessage),
	)
	if p.Spinner == nil {
		p.Spinner = utils.NewSpinner(defaultMsg, time.Millisecond*80, true)
	}

	// Load the cascade once, before the workers share the processor.
	if err := p.Prepare(); err != nil {
		return err
	}

	src := op.Src
	if utils.IsValidUrl(op.Src) {
		f, err := utils.DownloadImage(op.Src)
		if f != nil {
			defer os.Remove(f.Name())
			defer f.Close()
		}
		if err != nil {
			return fmt.Errorf("failed to load the source image: %w", err)
		}
		src = f.Name()
	}

	var (
		fs  os.FileInfo
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(src)
	}
	if err != nil {
		return fmt.Errorf("failed to load the source image: %w", err)
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		if err := os.MkdirAll(op.Dst, 0755); err != nil {
			return fmt.Errorf("unable to create the destination directory: %w", err)
		}

		// Limit the concurrently running workers to maxWorkers.
		workers := op.Workers
		if workers <= 0 || workers > maxWorkers {
			workers = runtime.NumCPU()
		}

		// Process recursively the image files from the specified directory concurrently.
		ch := make(chan result)
		done := make(chan struct{})
		defer close(done)

		paths, errc := walkDir(done, src, validExtensions)

		var wg sync.WaitGroup
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func() {
				defer wg.Done()
				op.consumer(p, op.Dst, ch, done, paths)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		var failed []error
		for res := range ch {
			op.printOpStatus(res.path, res.err)
			if res.err != nil {
				failed = append(failed, fmt.Errorf("%s: %w", res.path, res.err))
			}
		}
		if err := <-errc; err != nil {
			failed = append(failed, err)
		}
		if len(failed) > 0 {
			return errors.Join(failed...)
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0: // check for regular files or pipe names
		ext := strings.ToLower(filepath.Ext(op.Dst))
		if !lo.Contains(outputExtensions, ext) && op.Dst != op.PipeName {
			return fmt.Errorf("%w: %v", ErrUnsupportedFormat, ext)
		}
		err := op.process(p, src, op.Dst)
		op.printOpStatus(op.Dst, err)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported source %s", op.Src)
	}

	log.Infof("Execution time: %s", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	return nil
}

// consumer reads the path names from the paths channel and runs the processor against the source image.
func (op *Ops) consumer(
	p *Processor,
	dest string,
	res chan<- result,
	done <-chan struct{},
	paths <-chan string,
) {
	for src := range paths {
		dst := filepath.Join(dest, outputName(src))
		err := op.process(p, src, dst)

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// outputName returns the destination file name for src. Formats without
// an encoder are written as png.
func outputName(src string) string {
	base := filepath.Base(src)
	if ext := strings.ToLower(filepath.Ext(base)); !lo.Contains(outputExtensions, ext) {
		return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
	}
	return base
}

// process runs the processor over a single source and returns the error in case exists.
func (op *Ops) process(p *Processor, in, out string) error {
	successMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ TROPIC", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the field has been computed successfully ✔", utils.SuccessMessage),
	)
	errorMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ TROPIC", utils.StatusMessage),
		utils.DecorateText("computing the field failed...", utils.DefaultMessage),
		utils.DecorateText("✘", utils.ErrorMessage),
	)

	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}
	defer closeFile(src)
	defer closeFile(dst)

	// Capture CTRL-C signal and restore back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	finished := make(chan struct{})
	defer func() {
		signal.Stop(signalChan)
		close(finished)
	}()
	go func() {
		select {
		case <-signalChan:
			p.Spinner.RestoreCursor()
			removeFile(dst)
			os.Exit(1)
		case <-finished:
		}
	}()

	// Start the progress indicator.
	p.Spinner.Start()
	err = p.Process(src, dst)
	if err != nil {
		// remove the generated image file in case of an error
		removeFile(dst)
		p.Spinner.SetStopMsg(errorMsg)
	} else {
		p.Spinner.SetStopMsg(successMsg)
	}
	// Stop the progress indicator.
	p.Spinner.Stop()

	return err
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			closeFile(src)
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			closeFile(src)
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// printOpStatus displays the relevant information about the processed image.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		log.Errorf("%s %s",
			utils.DecorateText("Error computing the field:", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("%s: %v", filepath.Base(fname), err), utils.DefaultMessage),
		)
		return
	}
	if fname != op.PipeName {
		log.Infof("The image has been saved as: %s",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
		)
	}
}

// closeFile closes v when it is a file other than the standard streams.
func closeFile(v any) {
	f, ok := v.(*os.File)
	if !ok || f == os.Stdin || f == os.Stdout {
		return
	}
	if err := f.Close(); err != nil {
		log.Warnf("could not close the opened file: %v", err)
	}
}

// removeFile deletes the destination file after a failed run.
func removeFile(v any) {
	f, ok := v.(*os.File)
	if !ok || f == os.Stdout {
		return
	}
	os.Remove(f.Name())
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan struct{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			if !lo.Contains(srcExts, strings.ToLower(filepath.Ext(f.Name()))) {
				return nil
			}

			select {
			case <-done:
				return errors.New("directory walk cancelled")
			case pathChan <- path:
			}
			return nil
		})
	}()
	return pathChan, errChan
}
