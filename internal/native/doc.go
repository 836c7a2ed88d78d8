/*
Package native mirrors the fixed-layout records of the Dokan driver ABI and
provides the primitive conversions between those records and Go values.

The structures in this package are laid out field for field like their C
counterparts in dokan.h and the Windows SDK (DOKAN_FILE_INFO, DOKAN_OPTIONS,
DOKAN_OPERATIONS, BY_HANDLE_FILE_INFORMATION, WIN32_FIND_DATAW, FILETIME) so that
a pointer received from the driver can be reinterpreted directly. Layout is only
guaranteed for 64-bit targets, which is all the driver ships for.

Primitives:

	FILETIME    <-> time.Time     DecodeFileTime / EncodeFileTime
	int64       ->  high/low      SplitSize
	*uint16     ->  string        UTF16PtrToString
	string      ->  [N]uint16     CopyUTF16

A combined FILETIME value of zero means "unset" and maps to the zero
time.Time, in both directions.

Nothing here allocates native memory or keeps pointers beyond a call.
*/
package native
