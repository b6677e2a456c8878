// Copyright 2023, Chef.  All rights reserved.
// https://github.com/zrtmp/rtmpub
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package main

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 驱动本demo的全部可配置项；命令行的-i/-o/-r优先于同名yaml字段
type Config struct {
	H264FileName string `yaml:"h264_file_name"`
	PcmFileName  string `yaml:"pcm_file_name,omitempty"`
	RtmpPushUrl  string `yaml:"rtmp_push_url"`
	Recursive    bool   `yaml:"recursive,omitempty"`

	PcmSampleRate int `yaml:"pcm_sample_rate,omitempty"`
	PcmChannels   int `yaml:"pcm_channels,omitempty"`

	AacFrameSize   int `yaml:"aac_frame_size,omitempty"`
	AacBitrateKbps int `yaml:"aac_bitrate_kbps,omitempty"`
}

// loadConfig 读取yaml配置文件，严格模式（未知字段报错），随后补齐默认值
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rtmpub-pushfile: read config file failed. err=%w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("rtmpub-pushfile: decode config failed. err=%w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.PcmSampleRate == 0 {
		c.PcmSampleRate = 44100
	}
	if c.PcmChannels == 0 {
		c.PcmChannels = 2
	}
}
