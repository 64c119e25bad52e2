package order

import "errors"

type Option func(*options) error

type options struct {
	location    string
	baseURI     string
	contentType string
}

// WithLocation points the order at an existing order URL.
func WithLocation(url string) Option {
	return func(opts *options) error {
		opts.location = url
		return nil
	}
}

// WithBaseURI sets the collection new orders are created in.
// The default is [BaseURI].
func WithBaseURI(uri string) Option {
	return func(opts *options) error {
		if uri == "" {
			return errors.New("base uri must not be empty")
		}
		opts.baseURI = uri
		return nil
	}
}

// WithContentType overrides the order media type.
func WithContentType(contentType string) Option {
	return func(opts *options) error {
		if contentType == "" {
			return errors.New("content type must not be empty")
		}
		opts.contentType = contentType
		return nil
	}
}
