// Package hidio implements a report-oriented layer over an already-open
// HID device fd (C11): every Read/Write carries a leading report-ID
// byte, synthesized as 0 for devices whose report descriptor doesn't use
// numbered reports, matching the teacher's M_io_hid_read_cb/
// M_io_hid_write_cb offset handling. Device enumeration and descriptor
// parsing are out of scope; callers supply the fd, max report sizes, and
// whether the device uses numbered reports.
package hidio
