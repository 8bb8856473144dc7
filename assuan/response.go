package assuan

import "io"

// Response is the tagged variant a command handler returns: Ok, Data, or
// SecretData (spec.md §3). ServerLoop only needs to write it and ask
// whether the connection should close afterward.
type Response interface {
	writeTo(out io.Writer) error
	closeConn() bool
}

// Ok is the "OK [debug-info]\n" response. The zero value is not usable;
// construct one with NewOk or NewOkWithDebugInfo.
type Ok struct {
	line  *ResponseLine
	close bool
}

// NewOk returns an Ok response with the default debug info "success".
func NewOk() *Ok {
	ok, err := NewOkWithDebugInfo("success")
	if err != nil {
		// "success" always fits; this can never happen.
		panic(err)
	}
	return ok
}

// NewOkWithDebugInfo returns an Ok response carrying the given debug info
// instead of the default "success".
func NewOkWithDebugInfo(info string) (*Ok, error) {
	line := NewResponseLine()
	if err := line.Append("OK "); err != nil {
		return nil, err
	}
	if err := line.Append(info); err != nil {
		return nil, err
	}
	return &Ok{line: line}, nil
}

// CloseConnection sets whether the ServerLoop should terminate the
// connection after writing this response. BYE sets this to true.
func (o *Ok) CloseConnection(v bool) *Ok {
	o.close = v
	return o
}

func (o *Ok) writeTo(out io.Writer) error { return o.line.Write(out) }
func (o *Ok) closeConn() bool             { return o.close }

// Data is a "D <escaped-data>\n" response followed by an embedded Ok line
// (default "OK success").
type Data struct {
	dataLine *ResponseLine
	ok       *Ok
}

// NewData returns a Data response carrying s as its payload.
func NewData(s string) (*Data, error) {
	line := NewResponseLine()
	if err := line.Append("D "); err != nil {
		return nil, err
	}
	if err := line.Append(s); err != nil {
		return nil, err
	}
	return &Data{dataLine: line, ok: NewOk()}, nil
}

// WithCustomOk replaces the embedded Ok line emitted after the data line.
func (d *Data) WithCustomOk(ok *Ok) *Data {
	d.ok = ok
	return d
}

// WithDebugInfo replaces the embedded Ok line's debug info.
func (d *Data) WithDebugInfo(info string) (*Data, error) {
	ok, err := NewOkWithDebugInfo(info)
	if err != nil {
		return nil, err
	}
	return d.WithCustomOk(ok), nil
}

// CloseConnection sets whether the ServerLoop should terminate the
// connection after writing this response.
func (d *Data) CloseConnection(v bool) *Data {
	d.ok.CloseConnection(v)
	return d
}

func (d *Data) writeTo(out io.Writer) error {
	if err := d.dataLine.Write(out); err != nil {
		return err
	}
	return d.ok.writeTo(out)
}

func (d *Data) closeConn() bool { return d.ok.closeConn() }

// SecretData is semantically identical to Data, except its payload lives in
// heap storage that is guaranteed to be overwritten with zero bytes once
// Destroy is called (and, as a backstop, when it is garbage collected) --
// see secretBuffer and spec.md §4.4. It must be used for any payload
// carrying user-entered secrets, such as a PIN.
type SecretData struct {
	dataLine *secretBuffer
	ok       *Ok
}

// NewSecretData returns a SecretData response carrying secret as its
// payload. The escaped payload is copied into the SecretData's own heap
// buffer, which Destroy scrubs; the secret string passed in is neither
// retained nor scrubbed.
func NewSecretData(secret string) (*SecretData, error) {
	buf := newSecretBuffer()
	if err := buf.append("D "); err != nil {
		buf.destroy()
		return nil, err
	}
	if err := buf.append(secret); err != nil {
		buf.destroy()
		return nil, err
	}
	return &SecretData{dataLine: buf, ok: NewOk()}, nil
}

// WithCustomOk replaces the embedded Ok line emitted after the data line.
func (d *SecretData) WithCustomOk(ok *Ok) *SecretData {
	d.ok = ok
	return d
}

// WithDebugInfo replaces the embedded Ok line's debug info.
func (d *SecretData) WithDebugInfo(info string) (*SecretData, error) {
	ok, err := NewOkWithDebugInfo(info)
	if err != nil {
		return nil, err
	}
	return d.WithCustomOk(ok), nil
}

// CloseConnection sets whether the ServerLoop should terminate the
// connection after writing this response.
func (d *SecretData) CloseConnection(v bool) *SecretData {
	d.ok.CloseConnection(v)
	return d
}

// Destroy scrubs the secret payload immediately. The ServerLoop calls this
// once the response has been written; callers that build a SecretData but
// never hand it to a ServerLoop (e.g. in a test) should call it themselves.
func (d *SecretData) Destroy() {
	d.dataLine.destroy()
}

func (d *SecretData) writeTo(out io.Writer) error {
	if err := d.dataLine.write(out); err != nil {
		return err
	}
	return d.ok.writeTo(out)
}

func (d *SecretData) closeConn() bool { return d.ok.closeConn() }
