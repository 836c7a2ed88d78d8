package dokan

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/dokan-dev/dokany-sub001/internal/buffer"
	"github.com/dokan-dev/dokany-sub001/internal/driver"
	"github.com/dokan-dev/dokany-sub001/internal/native"
	"github.com/dokan-dev/dokany-sub001/pkg/errors"
	"github.com/dokan-dev/dokany-sub001/pkg/utils"
)

// Operation names used in logs and metrics.
const (
	OpCreateFile           = "CreateFile"
	OpOpenDirectory        = "OpenDirectory"
	OpCreateDirectory      = "CreateDirectory"
	OpCleanup              = "Cleanup"
	OpCloseFile            = "CloseFile"
	OpReadFile             = "ReadFile"
	OpWriteFile            = "WriteFile"
	OpFlushFileBuffers     = "FlushFileBuffers"
	OpGetFileInformation   = "GetFileInformation"
	OpFindFiles            = "FindFiles"
	OpSetFileAttributes    = "SetFileAttributes"
	OpSetFileTime          = "SetFileTime"
	OpDeleteFile           = "DeleteFile"
	OpDeleteDirectory      = "DeleteDirectory"
	OpMoveFile             = "MoveFile"
	OpSetEndOfFile         = "SetEndOfFile"
	OpSetAllocationSize    = "SetAllocationSize"
	OpLockFile             = "LockFile"
	OpUnlockFile           = "UnlockFile"
	OpGetDiskFreeSpace     = "GetDiskFreeSpace"
	OpGetVolumeInformation = "GetVolumeInformation"
	OpUnmount              = "Unmount"
	OpGetFileSecurity      = "GetFileSecurity"
	OpSetFileSecurity      = "SetFileSecurity"
)

// ProxyConfig holds the collaborators of a Proxy. Zero fields get no-op or
// default implementations.
type ProxyConfig struct {
	Logger  *utils.StructuredLogger
	Metrics MetricsRecorder
	Pool    *buffer.BytePool
	// ResetTimeout backs FileInfo.ResetTimeout, normally Driver.ResetTimeout.
	ResetTimeout func(timeout uint32, info *native.FileInfo) bool
}

// Proxy turns raw driver callbacks into Handler calls. It owns the table of
// open handles for one mount.
type Proxy struct {
	handler Handler
	options *nativeOptions
	table   *contextTable
	logger  *utils.StructuredLogger
	metrics MetricsRecorder
	pool    *buffer.BytePool
	reset   func(uint32, *native.FileInfo) bool
	trace   bool
}

var _ driver.Dispatcher = (*Proxy)(nil)

// NewProxy builds the dispatcher for one mount.
func NewProxy(handler Handler, options MountOptions, config ProxyConfig) (*Proxy, error) {
	if handler == nil {
		return nil, errors.NewError(errors.ErrCodeHandlerMissing, "handler is nil").
			WithComponent("dispatcher")
	}
	translated, err := translateOptions(options)
	if err != nil {
		return nil, err
	}
	return newProxy(handler, translated, config), nil
}

func newProxy(handler Handler, options *nativeOptions, config ProxyConfig) *Proxy {
	p := &Proxy{
		handler: handler,
		options: options,
		table:   newContextTable(),
		logger:  config.Logger,
		metrics: config.Metrics,
		pool:    config.Pool,
		reset:   config.ResetTimeout,
		trace:   options.Options.Options&native.OptionDebug != 0,
	}
	if p.logger == nil {
		p.logger = utils.NewDiscardLogger()
	}
	p.logger = p.logger.WithComponent("dispatcher")
	if p.metrics == nil {
		p.metrics = nopMetrics{}
	}
	if p.pool == nil {
		p.pool = buffer.NewBytePool()
	}
	return p
}

// OpenHandles returns the number of handles currently open.
func (p *Proxy) OpenHandles() int {
	return p.table.len()
}

// call carries per-invocation diagnostics.
type call struct {
	op    string
	file  string
	start time.Time
}

// name decodes a driver string argument. A nil name is a marshaling error.
func (c *call) name(p *uint16) (string, error) {
	if p == nil {
		return "", marshalError("nil file name")
	}
	c.file = native.UTF16PtrToString(p)
	return c.file, nil
}

func marshalError(format string, args ...interface{}) *errors.DokanError {
	return errors.NewError(errors.ErrCodeMarshalFailed, fmt.Sprintf(format, args...))
}

// invoke runs fn for one driver callback. A panic or marshaling error inside
// fn becomes StatusGenericFailure and never crosses the driver boundary.
func (p *Proxy) invoke(op string, info *native.FileInfo, fn func(c *call) (Status, error)) (result int32) {
	c := &call{op: op, start: time.Now()}

	defer func() {
		if r := recover(); r != nil {
			err := errors.NewError(errors.ErrCodePanicRecovered, fmt.Sprintf("recovered panic: %v", r)).WithStack()
			if cause, ok := r.(error); ok {
				err = err.WithCause(cause)
			}
			result = p.fail(c, err)
		}
		p.metrics.RecordOperation(op, Status(result), time.Since(c.start))
		if p.trace {
			p.logger.Trace("dispatch", map[string]interface{}{
				"operation": op,
				"file":      c.file,
				"status":    Status(result).String(),
				"duration":  time.Since(c.start).String(),
			})
		}
	}()

	if info == nil {
		return p.fail(c, marshalError("nil DOKAN_FILE_INFO"))
	}

	status, err := fn(c)
	if err != nil {
		return p.fail(c, err)
	}
	return int32(status)
}

func (p *Proxy) fail(c *call, err error) int32 {
	derr, ok := err.(*errors.DokanError)
	if !ok {
		derr = errors.Wrap(err, errors.ErrCodeMarshalFailed, "dispatch failed")
	}
	derr = derr.WithComponent("dispatcher").
		WithOperation(c.op).
		WithStatus(int32(StatusGenericFailure))
	if c.file != "" {
		derr = derr.WithContext("file", c.file)
	}

	fields := map[string]interface{}{
		"operation": c.op,
		"file":      c.file,
		"code":      string(derr.Code),
	}
	if derr.Stack != "" {
		fields["stack"] = derr.Stack
	}
	p.logger.Error(derr.Error(), fields)
	p.metrics.RecordFailure(c.op, string(derr.Code))
	return int32(StatusGenericFailure)
}

func (p *Proxy) fileInfo(ctx *FileContext, info *native.FileInfo) *FileInfo {
	return newFileInfo(ctx, info, p.reset)
}

// opened finishes a create-style call: the handler's directory verdict is
// fed back to the driver, and a failed open releases its context since the
// driver never closes it.
func (p *Proxy) opened(ctx *FileContext, fi *FileInfo, info *native.FileInfo, status Status) {
	if fi.IsDirectory {
		ctx.markDirectory()
		info.IsDirectory = 1
	}
	if status != StatusSuccess {
		p.table.remove(ctx)
		info.Context = 0
	}
	p.metrics.SetOpenHandles(p.table.len())
}

func (p *Proxy) CreateFile(name *uint16, access, share, disposition, flags uint32, info *native.FileInfo) int32 {
	return p.invoke(OpCreateFile, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		ctx := p.table.create(info)
		fi := p.fileInfo(ctx, info)
		status := StatusGenericFailure
		defer func() { p.opened(ctx, fi, info, status) }()

		status = p.handler.CreateFile(fileName,
			decodeAccess(access), decodeShare(share), decodeMode(disposition), decodeOptions(flags), fi)
		return status, nil
	})
}

func (p *Proxy) OpenDirectory(name *uint16, info *native.FileInfo) int32 {
	return p.invoke(OpOpenDirectory, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		ctx := p.table.create(info)
		fi := p.fileInfo(ctx, info)
		status := StatusGenericFailure
		defer func() { p.opened(ctx, fi, info, status) }()

		status = p.handler.OpenDirectory(fileName, fi)
		return status, nil
	})
}

func (p *Proxy) CreateDirectory(name *uint16, info *native.FileInfo) int32 {
	return p.invoke(OpCreateDirectory, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		ctx := p.table.create(info)
		fi := p.fileInfo(ctx, info)
		status := StatusGenericFailure
		defer func() { p.opened(ctx, fi, info, status) }()

		status = p.handler.CreateDirectory(fileName, fi)
		return status, nil
	})
}

// simple dispatches an operation that takes only a name.
func (p *Proxy) simple(op string, name *uint16, info *native.FileInfo, fn func(string, *FileInfo) Status) int32 {
	return p.invoke(op, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		ctx := p.table.resolve(info)
		return fn(fileName, p.fileInfo(ctx, info)), nil
	})
}

func (p *Proxy) Cleanup(name *uint16, info *native.FileInfo) int32 {
	return p.simple(OpCleanup, name, info, p.handler.Cleanup)
}

// CloseFile always removes the context, whatever the handler does.
func (p *Proxy) CloseFile(name *uint16, info *native.FileInfo) int32 {
	return p.invoke(OpCloseFile, info, func(c *call) (Status, error) {
		ctx := p.table.resolve(info)
		defer func() {
			p.table.remove(ctx)
			info.Context = 0
			p.metrics.SetOpenHandles(p.table.len())
		}()

		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		return p.handler.CloseFile(fileName, p.fileInfo(ctx, info)), nil
	})
}

func (p *Proxy) ReadFile(name *uint16, buf *byte, length uint32, read *uint32, offset int64, info *native.FileInfo) int32 {
	return p.invoke(OpReadFile, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		if buf == nil && length > 0 {
			return 0, marshalError("nil read buffer of length %d", length)
		}
		if read == nil {
			return 0, marshalError("nil read length")
		}
		ctx := p.table.resolve(info)

		managed := p.pool.Get(int(length))
		defer p.pool.Put(managed)

		n, status := p.handler.ReadFile(fileName, managed, offset, p.fileInfo(ctx, info))
		if status != StatusSuccess {
			return status, nil
		}
		if n < 0 || n > len(managed) {
			return 0, marshalError("handler read %d bytes into a %d byte buffer", n, len(managed))
		}
		if n > 0 {
			copy(unsafe.Slice(buf, length), managed[:n])
		}
		*read = uint32(n)
		p.metrics.RecordBytes(OpReadFile, n)
		return status, nil
	})
}

func (p *Proxy) WriteFile(name *uint16, buf *byte, length uint32, written *uint32, offset int64, info *native.FileInfo) int32 {
	return p.invoke(OpWriteFile, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		if buf == nil && length > 0 {
			return 0, marshalError("nil write buffer of length %d", length)
		}
		if written == nil {
			return 0, marshalError("nil written length")
		}
		ctx := p.table.resolve(info)

		managed := p.pool.Get(int(length))
		defer p.pool.Put(managed)
		if length > 0 {
			copy(managed, unsafe.Slice(buf, length))
		}

		n, status := p.handler.WriteFile(fileName, managed, offset, p.fileInfo(ctx, info))
		if status != StatusSuccess {
			return status, nil
		}
		if n < 0 || n > len(managed) {
			return 0, marshalError("handler wrote %d bytes from a %d byte buffer", n, len(managed))
		}
		*written = uint32(n)
		p.metrics.RecordBytes(OpWriteFile, n)
		return status, nil
	})
}

func (p *Proxy) FlushFileBuffers(name *uint16, info *native.FileInfo) int32 {
	return p.simple(OpFlushFileBuffers, name, info, p.handler.FlushFileBuffers)
}

func (p *Proxy) GetFileInformation(name *uint16, out *native.ByHandleFileInformation, info *native.FileInfo) int32 {
	return p.invoke(OpGetFileInformation, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		if out == nil {
			return 0, marshalError("nil BY_HANDLE_FILE_INFORMATION")
		}
		ctx := p.table.resolve(info)

		rec, status := p.handler.GetFileInformation(fileName, p.fileInfo(ctx, info))
		if status == StatusSuccess {
			encodeHandleInformation(out, &rec, p.options.VolumeSerialNumber, fileName)
		}
		return status, nil
	})
}

// FindFiles hands each entry to fill in handler order. fill is not kept.
func (p *Proxy) FindFiles(name *uint16, fill native.FillFindData, info *native.FileInfo) int32 {
	return p.invoke(OpFindFiles, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		if fill == nil {
			return 0, marshalError("nil fill callback")
		}
		ctx := p.table.resolve(info)

		records, status := p.handler.FindFiles(fileName, p.fileInfo(ctx, info))
		if status != StatusSuccess {
			return status, nil
		}
		var data native.FindData
		for i := range records {
			encodeFindData(&data, &records[i])
			if p.trace {
				p.logger.Trace("fill", map[string]interface{}{
					"file":  fileName,
					"entry": native.UTF16ToString(data.FileName[:]),
				})
			}
			fill(&data, info)
		}
		return status, nil
	})
}

func (p *Proxy) SetFileAttributes(name *uint16, attributes uint32, info *native.FileInfo) int32 {
	return p.simple(OpSetFileAttributes, name, info, func(fileName string, fi *FileInfo) Status {
		return p.handler.SetFileAttributes(fileName, FileAttribute(attributes), fi)
	})
}

func (p *Proxy) SetFileTime(name *uint16, creation, lastAccess, lastWrite *native.FileTime, info *native.FileInfo) int32 {
	return p.simple(OpSetFileTime, name, info, func(fileName string, fi *FileInfo) Status {
		return p.handler.SetFileTime(fileName,
			native.DecodeFileTime(creation),
			native.DecodeFileTime(lastAccess),
			native.DecodeFileTime(lastWrite), fi)
	})
}

func (p *Proxy) DeleteFile(name *uint16, info *native.FileInfo) int32 {
	return p.simple(OpDeleteFile, name, info, p.handler.DeleteFile)
}

func (p *Proxy) DeleteDirectory(name *uint16, info *native.FileInfo) int32 {
	return p.simple(OpDeleteDirectory, name, info, p.handler.DeleteDirectory)
}

func (p *Proxy) MoveFile(name, newName *uint16, replace bool, info *native.FileInfo) int32 {
	return p.invoke(OpMoveFile, info, func(c *call) (Status, error) {
		fileName, err := c.name(name)
		if err != nil {
			return 0, err
		}
		if newName == nil {
			return 0, marshalError("nil new file name")
		}
		target := native.UTF16PtrToString(newName)
		ctx := p.table.resolve(info)
		return p.handler.MoveFile(fileName, target, replace, p.fileInfo(ctx, info)), nil
	})
}

func (p *Proxy) SetEndOfFile(name *uint16, length int64, info *native.FileInfo) int32 {
	return p.simple(OpSetEndOfFile, name, info, func(fileName string, fi *FileInfo) Status {
		return p.handler.SetEndOfFile(fileName, length, fi)
	})
}

func (p *Proxy) SetAllocationSize(name *uint16, length int64, info *native.FileInfo) int32 {
	return p.simple(OpSetAllocationSize, name, info, func(fileName string, fi *FileInfo) Status {
		return p.handler.SetAllocationSize(fileName, length, fi)
	})
}

func (p *Proxy) LockFile(name *uint16, offset, length int64, info *native.FileInfo) int32 {
	return p.simple(OpLockFile, name, info, func(fileName string, fi *FileInfo) Status {
		return p.handler.LockFile(fileName, offset, length, fi)
	})
}

func (p *Proxy) UnlockFile(name *uint16, offset, length int64, info *native.FileInfo) int32 {
	return p.simple(OpUnlockFile, name, info, func(fileName string, fi *FileInfo) Status {
		return p.handler.UnlockFile(fileName, offset, length, fi)
	})
}

func (p *Proxy) GetDiskFreeSpace(freeBytesAvailable, totalBytes, totalFreeBytes *uint64, info *native.FileInfo) int32 {
	return p.invoke(OpGetDiskFreeSpace, info, func(c *call) (Status, error) {
		if freeBytesAvailable == nil || totalBytes == nil || totalFreeBytes == nil {
			return 0, marshalError("nil disk space out-parameter")
		}
		ctx := p.table.resolve(info)

		space, status := p.handler.GetDiskFreeSpace(p.fileInfo(ctx, info))
		if status == StatusSuccess {
			*freeBytesAvailable = space.FreeBytesAvailable
			*totalBytes = space.TotalBytes
			*totalFreeBytes = space.TotalFreeBytes
		}
		return status, nil
	})
}

// GetVolumeInformation answers from the mount options without calling the
// handler. Buffer sizes are in UTF-16 code units.
func (p *Proxy) GetVolumeInformation(volumeName *uint16, volumeNameSize uint32, serial, maxComponentLength, fileSystemFlags *uint32, fileSystemName *uint16, fileSystemNameSize uint32, info *native.FileInfo) int32 {
	return p.invoke(OpGetVolumeInformation, info, func(c *call) (Status, error) {
		if volumeName == nil && volumeNameSize > 0 {
			return 0, marshalError("nil volume name buffer of size %d", volumeNameSize)
		}
		if fileSystemName == nil && fileSystemNameSize > 0 {
			return 0, marshalError("nil file system name buffer of size %d", fileSystemNameSize)
		}
		if serial == nil || maxComponentLength == nil || fileSystemFlags == nil {
			return 0, marshalError("nil volume information out-parameter")
		}

		if volumeNameSize > 0 {
			native.CopyUTF16(unsafe.Slice(volumeName, volumeNameSize), p.options.VolumeLabel)
		}
		*serial = p.options.VolumeSerialNumber
		*maxComponentLength = p.options.MaximumComponentLength
		*fileSystemFlags = native.FileCaseSensitiveSearch | native.FileCasePreservedNames | native.FileUnicodeOnDisk
		if fileSystemNameSize > 0 {
			native.CopyUTF16(unsafe.Slice(fileSystemName, fileSystemNameSize), p.options.FileSystemName)
		}
		return StatusSuccess, nil
	})
}

func (p *Proxy) Unmount(info *native.FileInfo) int32 {
	return p.invoke(OpUnmount, info, func(c *call) (Status, error) {
		ctx := p.table.resolve(info)
		return p.handler.Unmount(p.fileInfo(ctx, info)), nil
	})
}

// GetFileSecurity is not supported; the buffers are left untouched.
func (p *Proxy) GetFileSecurity(name *uint16, securityInformation *uint32, descriptor *byte, length uint32, lengthNeeded *uint32, info *native.FileInfo) int32 {
	return p.invoke(OpGetFileSecurity, info, func(c *call) (Status, error) {
		return StatusNotImplemented, nil
	})
}

// SetFileSecurity is not supported.
func (p *Proxy) SetFileSecurity(name *uint16, securityInformation *uint32, descriptor *byte, length uint32, info *native.FileInfo) int32 {
	return p.invoke(OpSetFileSecurity, info, func(c *call) (Status, error) {
		return StatusNotImplemented, nil
	})
}
