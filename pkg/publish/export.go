package publish

import (
	"bytes"
	"io"

	"github.com/bornholm/wppublisher/pkg/wordpress"
	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"go.yaml.in/yaml/v3"
)

// ExportFilename returns the local filename of an exported post.
func ExportFilename(title string) string {
	name := slug.Make(title)
	if name == "" {
		name = "post"
	}

	return name + ".html"
}

// Export writes the post as a document with a YAML front matter followed by
// its HTML content. The created post, when given, adds its id and links.
func Export(w io.Writer, post wordpress.PostRequest, created *wordpress.PostResult) error {
	var buff bytes.Buffer

	if _, err := io.WriteString(&buff, "---\n"); err != nil {
		return errors.WithStack(err)
	}

	metadata := struct {
		wordpress.PostRequest `yaml:",inline"`
		ID                    int    `yaml:"id,omitempty"`
		Link                  string `yaml:"link,omitempty"`
		EditLink              string `yaml:"editLink,omitempty"`
	}{
		PostRequest: post,
	}

	if created != nil {
		metadata.ID = created.ID
		metadata.Link = created.Link
		metadata.EditLink = created.EditLink()
	}

	encoder := yaml.NewEncoder(&buff)
	if err := encoder.Encode(metadata); err != nil {
		return errors.Wrapf(err, "failed write post metadata")
	}

	if err := encoder.Close(); err != nil {
		return errors.WithStack(err)
	}

	if _, err := io.WriteString(&buff, "---\n\n"); err != nil {
		return errors.WithStack(err)
	}

	if _, err := io.WriteString(&buff, post.Content); err != nil {
		return errors.WithStack(err)
	}

	if _, err := io.WriteString(&buff, "\n"); err != nil {
		return errors.WithStack(err)
	}

	if _, err := w.Write(buff.Bytes()); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
