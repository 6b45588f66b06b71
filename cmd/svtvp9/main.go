/*
NAME
  main.go

DESCRIPTION
  svtvp9 encodes a raw I420 video file into an IVF stream using the
  encoder package, optionally also sending it as RTP over UDP. Rate control variables in the optional config file are
  applied to the running encoder whenever the file changes.

AUTHORS
  The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// svtvp9 is a command line VP9 style encoder.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/svtvp9/container/ivf"
	"github.com/ausocean/svtvp9/device"
	"github.com/ausocean/svtvp9/device/file"
	"github.com/ausocean/svtvp9/encoder"
	"github.com/ausocean/svtvp9/encoder/config"
	"github.com/ausocean/svtvp9/protocol/rtcp"
	"github.com/ausocean/svtvp9/protocol/rtp"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = false
)

const pkg = "svtvp9: "

// options holds the input and output settings of run.
type options struct {
	in     string            // Raw I420 input file.
	out    string            // IVF output file.
	config string            // Watched config file, if any.
	vars   map[string]string // Variables read from config.
	rtp    string            // RTP destination, if any.
	loop   bool
	frames int64 // Frames to encode, 0 for all.
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version")
		inPath      = flag.String("in", "", "raw I420 input file")
		outPath     = flag.String("out", "out.ivf", "IVF output file")
		cfgPath     = flag.String("config", "", "file of Name=Value encoder variables, watched for rate control changes")
		logPath     = flag.String("log", "", "log file; stderr only if empty")
		verbosity   = flag.Int("verbosity", int(logging.Info), "log verbosity, from debug (-1) to fatal (4)")
		width       = flag.Uint("width", 0, "source width, overrides the config file")
		height      = flag.Uint("height", 0, "source height, overrides the config file")
		loop        = flag.Bool("loop", false, "loop the input file")
		frames      = flag.Int64("frames", 0, "number of frames to encode, 0 for the whole input")
		plotPath    = flag.String("plot", "", "write a plot of coded bits per picture to this PNG file")
		rtpAddr     = flag.String("rtp", "", "also send the stream as RTP to this UDP host:port")
	)
	flag.Parse()
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	var logOut io.Writer = os.Stderr
	if *logPath != "" {
		fileLog := &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
		defer fileLog.Close()
		logOut = io.MultiWriter(fileLog, os.Stderr)
	}
	log := logging.New(int8(*verbosity), logOut, logSuppress)
	log.Info("starting svtvp9", "version", version)

	if *inPath == "" {
		log.Fatal(pkg + "no input file given")
	}
	if *loop && *frames == 0 {
		log.Fatal(pkg + "looping input needs a frame count")
	}

	c := config.Config{Logger: log, LogLevel: int8(*verbosity)}
	opts := options{in: *inPath, out: *outPath, config: *cfgPath, rtp: *rtpAddr, loop: *loop, frames: *frames}
	if *cfgPath != "" {
		var err error
		opts.vars, err = readVars(*cfgPath)
		if err != nil {
			log.Fatal(pkg+"could not read config file", "error", err.Error())
		}
		c.Update(opts.vars)
	}
	if *width != 0 {
		c.SourceWidth = *width
	}
	if *height != 0 {
		c.SourceHeight = *height
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := run(ctx, c, log, opts)
	if err != nil {
		log.Fatal(pkg+"encoding failed", "error", err.Error())
	}
	s.log(log)
	if *plotPath != "" {
		err = s.plot(*plotPath)
		if err != nil {
			log.Error(pkg+"could not write plot", "error", err.Error())
		}
	}
}

// run encodes the input and writes the output, returning the statistics of
// the coded pictures.
func run(ctx context.Context, c config.Config, log logging.Logger, opts options) (*stats, error) {
	enc := encoder.New(log)
	err := enc.SetParameter(c)
	if err != nil {
		return nil, fmt.Errorf("could not set encoder parameters: %w", err)
	}
	c = enc.Config()
	err = enc.Init()
	if err != nil {
		return nil, fmt.Errorf("could not initialise encoder: %w", err)
	}
	defer enc.Deinit()

	dev := file.New(log, opts.in, opts.loop)
	err = dev.Start()
	if err != nil {
		return nil, err
	}
	defer dev.Stop()
	fr, err := device.NewFrameReader(dev, int(c.SourceWidth), int(c.SourceHeight))
	if err != nil {
		return nil, err
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return nil, fmt.Errorf("could not create output file: %w", err)
	}
	defer f.Close()
	iw, err := ivf.NewWriter(f, ivf.Header{
		FourCC: ivf.FourCCVP9,
		Width:  uint16(c.SourceWidth),
		Height: uint16(c.SourceHeight),
		Rate:   uint32(c.FrameRate),
		Scale:  1,
	})
	if err != nil {
		return nil, err
	}
	dsts := []frameWriter{ivfWriter{iw}}
	if opts.rtp != "" {
		conn, err := net.Dial("udp", opts.rtp)
		if err != nil {
			return nil, fmt.Errorf("could not dial RTP destination: %w", err)
		}
		defer conn.Close()
		re, err := rtp.NewEncoder(conn, int(c.FrameRate), rtp.DefaultMTU)
		if err != nil {
			return nil, fmt.Errorf("could not create RTP encoder: %w", err)
		}
		log.Info("sending RTP", "destination", opts.rtp, "ssrc", re.SSRC())
		dsts = append(dsts, rtpWriter{re})

		stopReports, err := startReports(ctx, opts.rtp, re, log)
		if err != nil {
			log.Warning(pkg+"not sending RTCP reports", "error", err.Error())
		} else {
			defer stopReports()
		}
	}
	out := newOutput(log, device.FrameSize(int(c.SourceWidth), int(c.SourceHeight)), dsts...)

	if opts.config != "" {
		err = watchConfig(ctx, opts.config, opts.vars, enc, log)
		if err != nil {
			log.Warning(pkg+"could not watch config file", "error", err.Error())
		}
	}

	ok, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		log.Warning(pkg+"could not notify service manager", "error", err.Error())
	} else if ok {
		log.Debug("service manager notified")
	}

	s := newStats(int(c.SourceWidth), int(c.SourceHeight))
	err = encode(ctx, enc, fr, opts.frames, out, s, log)
	daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		return s, err
	}
	err = iw.Close()
	if err != nil {
		return s, fmt.Errorf("could not finish output file: %w", err)
	}
	log.Info("encoding complete", "frames", iw.Frames(), "output", opts.out)
	return s, nil
}

// encode sends frames from src to enc while writing the coded packets to out
// and s, until the end of sequence packet. An error sending frames stops the
// packet loop and is returned.
func encode(ctx context.Context, enc *encoder.Encoder, src frameSource, frames int64, out *output, s *stats, log logging.Logger) error {
	defer out.close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sendErr := make(chan error, 1)
	go func() {
		err := send(ctx, enc, src, frames, log)
		if err != nil {
			cancel()
		}
		sendErr <- err
	}()

	for {
		pkt, err := enc.GetPacket(ctx, true)
		if err != nil {
			cancel()
			if serr := <-sendErr; serr != nil {
				return serr
			}
			return fmt.Errorf("could not get packet: %w", err)
		}
		if pkt.EOS {
			enc.ReleasePacket(pkt)
			break
		}
		err = s.add(pkt)
		if err != nil {
			log.Warning(pkg+"could not parse packet", "picture", pkt.PictureNumber, "error", err.Error())
		}
		err = out.write(pkt.Data, uint64(pkt.PTS), pkt.Key)
		enc.ReleasePacket(pkt)
		if err != nil {
			cancel()
			<-sendErr
			return err
		}
	}
	return <-sendErr
}

// frameSource supplies raw input frames.
type frameSource interface {
	Next() (*encoder.Frame, error)
	Frames() int64
}

// startReports sends RTCP sender reports for re to the port above the RTP
// destination addr until the returned stop function is called, which sends
// a last report.
func startReports(ctx context.Context, addr string, re *rtp.Encoder, log logging.Logger) (func(), error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("bad RTP port: %w", err)
	}
	conn, err := net.Dial("udp", net.JoinHostPort(host, strconv.Itoa(p+1)))
	if err != nil {
		return nil, fmt.Errorf("could not dial RTCP destination: %w", err)
	}
	s := rtcp.NewSender(conn, re, "", log)
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		s.Run(ctx, rtcp.DefaultInterval)
		close(done)
	}()
	return func() {
		cancel()
		<-done
		err := s.Send()
		if err != nil {
			log.Debug("could not send final report", "error", err.Error())
		}
		conn.Close()
	}, nil
}

// send feeds frames to the encoder until the input or the frame count is
// exhausted, then ends the sequence.
func send(ctx context.Context, enc *encoder.Encoder, fr frameSource, frames int64, log logging.Logger) error {
	for frames == 0 || fr.Frames() < frames {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Warning(pkg+"input ended early", "error", err.Error())
			break
		}
		err = enc.SendPicture(ctx, f)
		if err != nil {
			return fmt.Errorf("could not send picture %d: %w", f.PTS, err)
		}
	}
	log.Debug("input complete", "frames", fr.Frames())
	return enc.SendEOS(ctx)
}
