package main

import (
	"flag"
	"os"

	"github.com/disintegration/imaging"
	"github.com/t2bot/link-previewer/common/config"
	"github.com/t2bot/link-previewer/common/logging"
	"github.com/t2bot/link-previewer/common/rcontext"
	"github.com/t2bot/link-previewer/thumbnailing"
)

func main() {
	configPath := flag.String("config", "url-previewer.yaml", "The path to the configuration")
	inFile := flag.String("i", "", "The input file to thumbnail")
	outFile := flag.String("o", "", "The output file to write the thumbnail to. The format follows the extension, eg: .png or .jpg")
	targetWidth := flag.Int("w", 0, "The target width of the thumbnail. Defaults to the configured width.")
	targetHeight := flag.Int("h", 0, "The target height of the thumbnail. Defaults to the configured height.")
	forceMime := flag.String("f", "", "Force the mime type of the input file, ignoring the detected mime type")
	flag.Parse()

	if inFile == nil || *inFile == "" {
		panic("No input file specified")
	}
	if outFile == nil || *outFile == "" {
		panic("No output file specified")
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("PREVIEWER_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}
	config.Path = *configPath

	err := logging.Setup(
		"-",
		config.Get().General.LogColors,
		config.Get().General.JsonLogs,
		config.Get().General.LogLevel,
	)
	if err != nil {
		panic(err)
	}
	ctx := rcontext.Initial()

	if *targetWidth <= 0 {
		*targetWidth = ctx.Config.Thumbnails.Width
	}
	if *targetHeight <= 0 {
		*targetHeight = ctx.Config.Thumbnails.Height
	}
	ctx.Log.WithField("width", *targetWidth).WithField("height", *targetHeight).Info("Thumbnailing options:")

	b, err := os.ReadFile(*inFile)
	if err != nil {
		panic(err)
	}

	if forceMime != nil && *forceMime != "" {
		ctx.Log.WithField("mime", *forceMime).Warn("Forcing mime type")
	}
	img, mime, err := thumbnailing.Decode(ctx, *forceMime, b)
	if err != nil {
		panic(err)
	}
	ctx.Log.WithField("mime", mime).WithField("width", img.Bounds().Dx()).WithField("height", img.Bounds().Dy()).Info("Decoded image")

	ctx.Log.Info("Generating thumbnail")
	thumb := thumbnailing.Thumbnail(img, *targetWidth, *targetHeight)
	if ctx.Config.Thumbnails.Blurhash.Enabled {
		hash, err := thumbnailing.Blurhash(thumb, ctx.Config.Thumbnails.Blurhash.XComponents, ctx.Config.Thumbnails.Blurhash.YComponents)
		if err != nil {
			ctx.Log.Warn("Error calculating blurhash: ", err)
		} else {
			ctx.Log.WithField("blurhash", hash).Info("Calculated blurhash")
		}
	}

	ctx.Log.WithField("width", thumb.Bounds().Dx()).WithField("height", thumb.Bounds().Dy()).Info("Writing generated thumbnail")
	if err = imaging.Save(thumb, *outFile); err != nil {
		panic(err)
	}

	ctx.Log.Info("Done!")
}
