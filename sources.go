package main

import (
	"io"

	"tirebot/config"
	"tirebot/scraper/browser"
	"tirebot/scraper/feed"
	"tirebot/scraper/jina"
	"tirebot/scraper/shopee"
	"tirebot/scraper/storefront"
	"tirebot/services"
	"tirebot/utils"
)

// buildSources turns the enabled source names into pipeline sources, in the
// order they are listed. The returned closers must be closed after the run.
func buildSources(cfg *config.Config, logger *utils.Logger) ([]services.Source, []io.Closer) {
	var (
		sources  []services.Source
		closers  []io.Closer
		renderer storefront.Renderer
	)
	timeout := cfg.FetchTimeout()
	t := cfg.Targets

	pageRenderer := func() storefront.Renderer {
		if renderer != nil {
			return renderer
		}
		if cfg.HTMLRenderer == config.RendererChrome {
			r := browser.New(browser.Options{ChromeBin: cfg.ChromeBin, Timeout: timeout}, logger)
			closers = append(closers, r)
			renderer = r
		} else {
			renderer = storefront.NewHTTPRenderer(timeout)
		}
		return renderer
	}

	for _, name := range cfg.EnabledSources {
		switch name {
		case config.SourceAtacadao, config.SourceDPaschoal:
			var pages []string
			for _, sf := range t.Storefronts {
				if sf.Name == name {
					pages = append(pages, sf.URL)
				}
			}
			if len(pages) == 0 {
				logger.Warn("[main] No storefront pages configured for %s", name)
				continue
			}
			sources = append(sources, services.Source{
				Fetcher: storefront.New(name, pageRenderer(), t.RequiredTerms),
				Policy:  t.Policy(name),
				Targets: pages,
			})

		case config.SourceShopee:
			sources = append(sources, services.Source{
				Fetcher: shopee.New("", timeout),
				Policy:  t.Policy(name),
			})

		case config.SourceJina:
			sources = append(sources, services.Source{
				Fetcher: jina.New(jina.Options{
					APIKey:    cfg.JinaAPIKey,
					Sites:     t.JinaSites,
					MaxURLs:   t.JinaMaxURLs,
					ReadDelay: cfg.QueryDelay(),
					Timeout:   timeout,
				}, logger),
				Policy: t.Policy(name),
			})

		case config.SourceBing:
			sources = append(sources, services.Source{
				Fetcher: feed.New(name, t.BingRSSTemplate, timeout),
				Policy:  t.Policy(name),
			})

		case config.SourceFeeds:
			if len(t.Feeds) == 0 {
				logger.Warn("[main] Source %s enabled but no feed URLs configured", name)
				continue
			}
			sources = append(sources, services.Source{
				Fetcher: feed.New(name, "", timeout),
				Policy:  t.Policy(name),
				Targets: t.Feeds,
			})

		default:
			logger.Warn("[main] Unknown source %q ignored", name)
		}
	}
	return sources, closers
}
