// Package managed models the managed side of the boundary: arrays and
// object instances as the managed runtime would hold them.
//
// Managed values are plain Go values:
//
//	boolean  bool        long    int64
//	byte     int8        float   float32
//	char     uint16      double  float64
//	short    int16       String  string
//	int      int32       object  *Object
//	arrays   *Array      null    nil
//
// Arrays and objects are reference types and are safe for concurrent use.
package managed
