package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// File 表单中的一个文件
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// OpenFile 从磁盘读取文件，ContentType 按扩展名推断
func OpenFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &File{Name: filepath.Base(path), ContentType: imageType(path), Data: data}, nil
}

func imageType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}

type formPart struct {
	name  string
	value string
	file  *File
}

// Form multipart 表单，字段按添加顺序写出
type Form struct {
	parts []formPart
}

// NewForm 创建空表单
func NewForm() *Form {
	return &Form{}
}

// Field 添加文本字段
func (f *Form) Field(name, value string) *Form {
	f.parts = append(f.parts, formPart{name: name, value: value})
	return f
}

// File 添加文件字段，file 为 nil 时忽略
func (f *Form) File(name string, file *File) *Form {
	if file != nil {
		f.parts = append(f.parts, formPart{name: name, file: file})
	}
	return f
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, p := range f.parts {
		if p.file == nil {
			if err := w.WriteField(p.name, p.value); err != nil {
				return nil, "", err
			}
			continue
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.name, p.file.Name))
		ct := p.file.ContentType
		if ct == "" {
			ct = imageType(p.file.Name)
		}
		h.Set("Content-Type", ct)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(pw, bytes.NewReader(p.file.Data)); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// NewMultipartRequest 创建 multipart/form-data 的 POST 请求
func NewMultipartRequest(path string, form *Form) *Request {
	r := &Request{
		Method: MethodPost,
		Path:   path,
		Header: make(http.Header),
	}
	body, contentType, err := form.encode()
	if err != nil {
		r.err = fmt.Errorf("encode multipart form: %w", err)
		return r
	}
	r.body = body
	r.contentType = contentType
	return r
}
