package document

// Option is a functional option for configuring a Converter via New.
type Option func(*Converter)

// WithFetcher sets the asset fetcher used for logos and attachments.
func WithFetcher(f Fetcher) Option {
	return func(c *Converter) {
		c.fetcher = f
	}
}

// WithFetchLimit bounds the number of concurrent asset fetches per document.
func WithFetchLimit(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.fetchLimit = n
		}
	}
}

// WithCreator sets the Creator entry of the document information dictionary.
func WithCreator(name string) Option {
	return func(c *Converter) {
		c.creator = name
	}
}

// WithHooks installs observation callbacks.
func WithHooks(h Hooks) Option {
	return func(c *Converter) {
		c.hooks = h
	}
}
