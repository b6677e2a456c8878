// Copyright 2021, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package avc

import (
	"encoding/hex"

	"github.com/q191201771/naza/pkg/nazaerrors"

	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/q191201771/naza/pkg/nazalog"
)

// Context 从sps中解析出的、上层关心的字段子集
type Context struct {
	Profile uint8
	Level   uint8
	Width   uint32
	Height  uint32
}

// sps 完整的逐字段解析结果，字段命名对应H.264标准文档
type sps struct {
	ProfileIdc          uint8
	ConstraintSet0Flag   uint8
	ConstraintSet1Flag   uint8
	ConstraintSet2Flag   uint8
	LevelIdc             uint8
	SpsId                uint32

	ChromaFormatIdc            uint32
	ResidualColorTransformFlag uint8
	BitDepthLuma               uint32
	BitDepthChroma             uint32
	TransFormBypass            uint8

	Log2MaxFrameNumMinus4          uint32
	PicOrderCntType                uint32
	Log2MaxPicOrderCntLsb          uint32
	NumRefFrames                   uint32
	GapsInFrameNumValueAllowedFlag uint8
	PicWidthInMbsMinusOne          uint32
	PicHeightInMapUnitsMinusOne    uint32
	FrameMbsOnlyFlag               uint8
	MbAdaptiveFrameFieldFlag       uint8
	Direct8X8InferenceFlag         uint8

	FrameCroppingFlag     uint8
	FrameCropLeftOffset   uint32
	FrameCropRightOffset  uint32
	FrameCropTopOffset    uint32
	FrameCropBottomOffset uint32
}

// ParseSps 解析sps，提取profile/level/宽高，供onMetaData的width/height字段使用
//
// @param payload sps裸数据，不带H.264 start code
func ParseSps(payload []byte, ctx *Context) error {
	br := nazabits.NewBitReader(payload)
	var s sps
	if err := parseSpsBasic(&br, &s); err != nil {
		nazalog.Errorf("parseSpsBasic failed. err=%+v, payload=%s", err, hex.EncodeToString(payload))
		return err
	}
	ctx.Profile = s.ProfileIdc
	ctx.Level = s.LevelIdc

	if err := parseSpsBeta(&br, &s); err != nil {
		// 宽高相关字段都在parseSpsBeta中读取，失败时无法得到宽高，将错误返回给上层
		nazalog.Warnf("parseSpsBeta failed, width/height unavailable. err=%+v", err)
		return err
	}
	ctx.Width = (s.PicWidthInMbsMinusOne+1)*16 - (s.FrameCropLeftOffset+s.FrameCropRightOffset)*2
	ctx.Height = (2-uint32(s.FrameMbsOnlyFlag))*(s.PicHeightInMapUnitsMinusOne+1)*16 - (s.FrameCropTopOffset+s.FrameCropBottomOffset)*2
	return nil
}

// ParseSpsDimensions 是ParseSps的简化入口，只返回宽高，忽略profile/level
func ParseSpsDimensions(spsPayload []byte) (width, height int, err error) {
	var ctx Context
	if err = ParseSps(spsPayload, &ctx); err != nil {
		return 0, 0, err
	}
	return int(ctx.Width), int(ctx.Height), nil
}

func parseSpsBasic(br *nazabits.BitReader, s *sps) error {
	if _, err := br.ReadBits8(8); err != nil { // nal header, caller已去除start code但保留nal header
		return nazaerrors.Wrap(err)
	}

	var err error
	s.ProfileIdc, err = br.ReadBits8(8)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.ConstraintSet0Flag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.ConstraintSet1Flag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.ConstraintSet2Flag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	if _, err = br.ReadBits8(5); err != nil { // reserved_zero_5bits
		return nazaerrors.Wrap(err)
	}
	s.LevelIdc, err = br.ReadBits8(8)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.SpsId, err = br.ReadGolomb()
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	if s.SpsId >= 32 {
		return nazaerrors.Wrap(ErrAVC)
	}
	return nil
}

func parseSpsBeta(br *nazabits.BitReader, s *sps) error {
	var err error

	// 100 High profile及以上几个profile多出一组chroma/bitdepth/scaling字段
	if s.ProfileIdc == 100 || s.ProfileIdc == 110 || s.ProfileIdc == 122 || s.ProfileIdc == 244 {
		s.ChromaFormatIdc, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		if s.ChromaFormatIdc > 3 {
			return nazaerrors.Wrap(ErrAVC)
		}
		if s.ChromaFormatIdc == 3 {
			s.ResidualColorTransformFlag, err = br.ReadBits8(1)
			if err != nil {
				return nazaerrors.Wrap(err)
			}
		}

		s.BitDepthLuma, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		s.BitDepthLuma += 8

		s.BitDepthChroma, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		s.BitDepthChroma += 8

		s.TransFormBypass, err = br.ReadBits8(1)
		if err != nil {
			return nazaerrors.Wrap(err)
		}

		// seq_scaling_matrix_present_flag：此库不解析缩放矩阵系数，存在缩放矩阵时无法定位其后的宽高字段
		flag, err := br.ReadBits8(1)
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		if flag == 1 {
			return nazaerrors.Wrap(ErrAVC) // scaling matrix为变长字段，这里不做跳过，直接返回错误
		}
	} else {
		s.ChromaFormatIdc = 1
		s.BitDepthLuma = 8
		s.BitDepthChroma = 8
	}

	s.Log2MaxFrameNumMinus4, err = br.ReadGolomb()
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.PicOrderCntType, err = br.ReadGolomb()
	if err != nil {
		return nazaerrors.Wrap(err)
	}

	if s.PicOrderCntType == 0 {
		s.Log2MaxPicOrderCntLsb, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		s.Log2MaxPicOrderCntLsb += 4
	} else if s.PicOrderCntType == 1 {
		return nazaerrors.Wrap(ErrAVC) // delta_pic_order相关的变长数组未实现
	}

	s.NumRefFrames, err = br.ReadGolomb()
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.GapsInFrameNumValueAllowedFlag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.PicWidthInMbsMinusOne, err = br.ReadGolomb()
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.PicHeightInMapUnitsMinusOne, err = br.ReadGolomb()
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	s.FrameMbsOnlyFlag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	if s.FrameMbsOnlyFlag == 0 {
		s.MbAdaptiveFrameFieldFlag, err = br.ReadBits8(1)
		if err != nil {
			return nazaerrors.Wrap(err)
		}
	}
	s.Direct8X8InferenceFlag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}

	s.FrameCroppingFlag, err = br.ReadBits8(1)
	if err != nil {
		return nazaerrors.Wrap(err)
	}
	if s.FrameCroppingFlag == 1 {
		s.FrameCropLeftOffset, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		s.FrameCropRightOffset, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		s.FrameCropTopOffset, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
		s.FrameCropBottomOffset, err = br.ReadGolomb()
		if err != nil {
			return nazaerrors.Wrap(err)
		}
	}

	return nil
}
